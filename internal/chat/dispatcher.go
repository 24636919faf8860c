package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/logging"
)

// ErrUnrecognized is reported for a slash line that names no command.
const ErrUnrecognized = "Unrecognized command. To start a message with '/', use '/say [message]'."

// Handler carries out the commands typed into the chat line.
type Handler interface {
	// CreateLobby creates a lobby. The name may be empty.
	CreateLobby(name string)
	JoinLobby(lobbyID int)
	SetName(name string)
	SendMessage(text string)
	JoinSeat(seat game.Seat)
	// Error surfaces an advisory to the user.
	Error(msg string)
}

// Dispatcher maps chat lines to handler calls.
type Dispatcher struct {
	logger  *zerolog.Logger
	handler Handler
}

func NewDispatcher(handler Handler, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{logger: logger, handler: handler}
}

func (d *Dispatcher) SetLogger(logger *zerolog.Logger) {
	d.logger = logger
}

// Submit handles one line. It returns true when the input should be
// cleared: for plain chat and for commands that were dispatched.
func (d *Dispatcher) Submit(line string) bool {
	if !strings.HasPrefix(line, "/") {
		d.handler.SendMessage(line)
		return true
	}
	fields := strings.Split(line, " ")
	command, params := fields[0], fields[1:]
	first := ""
	if len(params) > 0 {
		first = params[0]
	}

	switch command {
	case "/create", "/createlobby":
		d.handler.CreateLobby(first)
	case "/join":
		lobbyID, err := strconv.Atoi(first)
		if err != nil || lobbyID < 0 {
			return d.reject(command, "Usage: /join <lobby number>")
		}
		d.handler.JoinLobby(lobbyID)
	case "/name", "/setname":
		if first == "" {
			return d.reject(command, fmt.Sprintf("Usage: %s <name>", command))
		}
		d.handler.SetName(first)
	case "/say":
		d.handler.SendMessage(strings.Join(params, " "))
	case "/seat":
		n, err := strconv.Atoi(first)
		if err != nil || !game.Seat(n).Valid() {
			return d.reject(command, fmt.Sprintf("Usage: /seat <0-%d>", game.NumSeats-1))
		}
		d.handler.JoinSeat(game.Seat(n))
	default:
		return d.reject(command, ErrUnrecognized)
	}
	d.logger.Debug().Msgf("Dispatched chat command %s", command)
	return true
}

func (d *Dispatcher) reject(command string, msg string) bool {
	d.logger.Debug().Msgf("Rejected chat command %s", command)
	d.handler.Error(msg)
	return false
}
