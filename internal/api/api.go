package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/transport"
	"voyager.com/euchre/logging"
)

var (
	// ErrNotJoined is returned for player scoped calls before JoinServer.
	ErrNotJoined = errors.New("not joined to the server")
	// ErrNoLobby is returned for lobby scoped calls outside a lobby.
	ErrNoLobby = errors.New("not in a lobby")
)

// Game is the only place that talks to the connection. It turns typed
// operations into endpoint calls and wire payloads into internal types.
// Nothing unchecked gets past the translate functions.
type Game struct {
	conn transport.Conn
	now  func() time.Time

	// Calls complete on their own goroutines, so the session fields are locked.
	mu       sync.RWMutex
	logger   *zerolog.Logger
	playerID uint64
	joined   bool
	lobbyID  int
	inLobby  bool
	subs     []transport.Subscription
}

// New creates the facade over an open connection.
func New(conn transport.Conn, logger *zerolog.Logger) *Game {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Game{logger: logger, conn: conn, now: time.Now}
}

// SetLogger replaces the logger, as when the player is known after joining.
func (g *Game) SetLogger(logger *zerolog.Logger) {
	g.mu.Lock()
	g.logger = logger
	g.mu.Unlock()
}

func (g *Game) log() *zerolog.Logger {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.logger
}

// SetClock replaces the time source used to stamp chat messages.
func (g *Game) SetClock(now func() time.Time) {
	g.now = now
}

func (g *Game) PlayerID() (uint64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playerID, g.joined
}

func (g *Game) LobbyID() (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lobbyID, g.inLobby
}

func (g *Game) call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error) {
	g.log().Debug().Str(logging.EndpointKey, endpoint).Msgf("Calling %s %v", endpoint, args)
	result, err := g.conn.Call(ctx, endpoint, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "call to [%s] failed", endpoint)
	}
	return result, nil
}

// callPlayer calls a player scoped endpoint.
func (g *Game) callPlayer(ctx context.Context, op string, args ...interface{}) ([]byte, error) {
	playerID, joined := g.PlayerID()
	if !joined {
		return nil, ErrNotJoined
	}
	return g.call(ctx, PlayerEndpoint(playerID, op), args...)
}

// callLobby calls a player scoped endpoint with the lobby id as first argument.
func (g *Game) callLobby(ctx context.Context, op string, args ...interface{}) ([]byte, error) {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return nil, ErrNoLobby
	}
	return g.callPlayer(ctx, op, append([]interface{}{lobbyID}, args...)...)
}

// expectTruthy fails calls whose result the server reports as falsy.
func expectTruthy(endpoint string, result []byte, err error) error {
	if err != nil {
		return err
	}
	if !truthy(result) {
		return &game.RejectedError{Endpoint: endpoint, Reason: fmt.Sprintf("result %s", string(result))}
	}
	return nil
}

// JoinServer registers this client as a new player.
func (g *Game) JoinServer(ctx context.Context) (game.Player, error) {
	result, err := g.call(ctx, JoinServerEndpoint)
	if err != nil {
		return game.Player{}, err
	}
	var reply []interface{}
	if err := json.Unmarshal(result, &reply); err != nil || len(reply) != 2 {
		return game.Player{}, protocolError(JoinServerEndpoint, "unexpected reply %s", string(result))
	}
	id, ok := reply[0].(float64)
	if !ok || id < 0 {
		return game.Player{}, protocolError(JoinServerEndpoint, "unexpected player id %v", reply[0])
	}
	name, _ := reply[1].(string)
	g.mu.Lock()
	g.playerID = uint64(id)
	g.joined = true
	g.mu.Unlock()
	g.log().Info().Uint64(logging.PlayerIDKey, uint64(id)).Msgf("Joined server as %s", name)
	return game.Player{ID: uint64(id), Name: name, Seat: game.NoSeat}, nil
}

// CreateLobby creates a lobby, which the server joins us to.
func (g *Game) CreateLobby(ctx context.Context) (int, error) {
	result, err := g.callPlayer(ctx, OpCreateLobby)
	if err != nil {
		return 0, err
	}
	var lobbyID int
	if err := json.Unmarshal(result, &lobbyID); err != nil {
		return 0, protocolError(OpCreateLobby, "unexpected lobby id %s", string(result))
	}
	g.enterLobby(lobbyID)
	return lobbyID, nil
}

// JoinLobby joins an existing lobby.
func (g *Game) JoinLobby(ctx context.Context, lobbyID int) error {
	if _, err := g.callPlayer(ctx, OpJoinLobby, lobbyID); err != nil {
		return err
	}
	g.enterLobby(lobbyID)
	return nil
}

func (g *Game) enterLobby(lobbyID int) {
	if current, ok := g.LobbyID(); ok && current != lobbyID {
		g.Unsubscribe()
	}
	g.mu.Lock()
	g.lobbyID = lobbyID
	g.inLobby = true
	g.mu.Unlock()
	g.log().Info().Int(logging.LobbyIDKey, lobbyID).Msgf("Entered lobby %d", lobbyID)
}

// JoinSeat asks for the seat. A nil error means the server granted it.
func (g *Game) JoinSeat(ctx context.Context, seat game.Seat) error {
	if !seat.Valid() {
		return errors.Errorf("no such seat %d", int(seat))
	}
	result, err := g.callLobby(ctx, OpJoinSeat, int(seat))
	return expectTruthy(OpJoinSeat, result, err)
}

// PerformMove is the primitive behind every bid and card move.
func (g *Game) PerformMove(ctx context.Context, move game.MoveType, args ...interface{}) error {
	g.log().Info().Str(logging.MoveKey, string(move)).Msgf("Performing move %s %v", move, args)
	result, err := g.callLobby(ctx, OpPerformMove, append([]interface{}{string(move)}, args...)...)
	return expectTruthy(OpPerformMove, result, err)
}

// Bid1 orders up (call) or passes in the first round.
func (g *Game) Bid1(ctx context.Context, call bool, alone bool) error {
	return g.PerformMove(ctx, game.MoveBid1, call, alone)
}

// Bid2 names trump (call) or passes in the second round. trump is nil on a pass.
func (g *Game) Bid2(ctx context.Context, call bool, trump *cards.Suit, alone bool) error {
	var suit interface{}
	if trump != nil {
		suit = trump.String()
	}
	return g.PerformMove(ctx, game.MoveBid2, call, suit, alone)
}

func (g *Game) Play(ctx context.Context, c cards.Card) error {
	return g.PerformMove(ctx, game.MovePlay, c.String())
}

func (g *Game) Discard(ctx context.Context, c cards.Card) error {
	return g.PerformMove(ctx, game.MoveDiscard, c.String())
}

// CardMove plays or discards depending on the phase.
func (g *Game) CardMove(ctx context.Context, phase game.Phase, c cards.Card) error {
	move, ok := game.MoveFor(phase)
	if !ok {
		return errors.Errorf("no card move in phase %s", phase)
	}
	return g.PerformMove(ctx, move, c.String())
}

func (g *Game) SetName(ctx context.Context, name string) error {
	_, err := g.callPlayer(ctx, OpSetName, name)
	return err
}

func (g *Game) StartGame(ctx context.Context) error {
	_, err := g.callLobby(ctx, OpStartGame)
	return err
}

func (g *Game) SendMessage(ctx context.Context, text string) error {
	_, err := g.callPlayer(ctx, OpChat, text)
	return err
}

func (g *Game) subscribe(topic string, handler transport.Handler) error {
	sub, err := g.conn.Subscribe(topic, handler)
	if err != nil {
		return errors.Wrapf(err, "unable to subscribe to [%s]", topic)
	}
	g.mu.Lock()
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
	return nil
}

func (g *Game) dropped(topic string, err error) {
	g.log().Error().Err(err).Str(logging.TopicKey, topic).Msg("Dropping malformed broadcast")
}

// OnPublicState registers for full public snapshots.
func (g *Game) OnPublicState(fn func(game.GameState)) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	topic := PublicStateTopic(lobbyID)
	return g.subscribe(topic, func(data []byte) {
		state, err := TranslatePublicState(topic, data)
		if err != nil {
			g.dropped(topic, err)
			return
		}
		fn(state)
	})
}

// OnHand registers for this player's private hand.
func (g *Game) OnHand(fn func([]cards.Card)) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	playerID, joined := g.PlayerID()
	if !joined {
		return ErrNotJoined
	}
	topic := HandTopic(lobbyID, playerID)
	return g.subscribe(topic, func(data []byte) {
		hand, err := TranslateHand(topic, data)
		if err != nil {
			g.dropped(topic, err)
			return
		}
		fn(hand)
	})
}

// OnSeats registers for seat deltas.
func (g *Game) OnSeats(fn func(map[game.Seat]*game.Player)) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	topic := SeatsTopic(lobbyID)
	return g.subscribe(topic, func(data []byte) {
		seats, err := TranslateSeats(topic, data)
		if err != nil {
			g.dropped(topic, err)
			return
		}
		fn(seats)
	})
}

// OnChat registers for chat lines.
func (g *Game) OnChat(fn func(game.ChatMessage)) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	topic := ChatTopic(lobbyID)
	return g.subscribe(topic, func(data []byte) {
		msg, err := TranslateChat(topic, data, g.now())
		if err != nil {
			g.dropped(topic, err)
			return
		}
		fn(msg)
	})
}

// OnCardPlayed registers for single card plays.
func (g *Game) OnCardPlayed(fn func(game.Seat, cards.Card)) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	topic := CardPlayedTopic(lobbyID)
	return g.subscribe(topic, func(data []byte) {
		seat, c, err := TranslateCardPlayed(topic, data)
		if err != nil {
			g.dropped(topic, err)
			return
		}
		fn(seat, c)
	})
}

// OnNewTrick registers for the start of a trick.
func (g *Game) OnNewTrick(fn func()) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	return g.subscribe(NewTrickTopic(lobbyID), func([]byte) { fn() })
}

// OnNewHand registers for the start of a hand.
func (g *Game) OnNewHand(fn func()) error {
	lobbyID, inLobby := g.LobbyID()
	if !inLobby {
		return ErrNoLobby
	}
	return g.subscribe(NewHandTopic(lobbyID), func([]byte) { fn() })
}

// Unsubscribe drops every topic registration.
func (g *Game) Unsubscribe() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			g.log().Warn().Err(err).Str(logging.TopicKey, sub.Topic()).Msg("Error while unsubscribing")
		}
	}
}
