package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"voyager.com/euchre/internal/client"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/rest"
	"voyager.com/euchre/internal/transport"
	"voyager.com/euchre/internal/util"
	"voyager.com/euchre/internal/view"
	"voyager.com/euchre/logging"
)

var (
	cmdArgs    arg
	mainLogger = logging.GetZeroLogger("main::main", os.Stderr)
)

type arg struct {
	configFile string
	transport  string
	url        string
	name       string
	lobby      int
	create     bool
	seat       int
	restPort   uint
	quiet      bool
}

func init() {
	flag.StringVar(&cmdArgs.configFile, "config", "", "Client config YAML file")
	flag.StringVar(&cmdArgs.transport, "transport", "", "Server transport (nats or websocket)")
	flag.StringVar(&cmdArgs.url, "url", "", "Server URL")
	flag.StringVar(&cmdArgs.name, "name", "", "Player name")
	flag.IntVar(&cmdArgs.lobby, "lobby", -1, "Lobby to join after connecting")
	flag.BoolVar(&cmdArgs.create, "create", false, "Create a lobby after connecting")
	flag.IntVar(&cmdArgs.seat, "seat", -1, "Seat to take after entering the lobby")
	flag.UintVar(&cmdArgs.restPort, "rest-port", 0, "Port for the status endpoint. 0 disables it.")
	flag.BoolVar(&cmdArgs.quiet, "quiet", false, "Don't redraw the table on every update")
	flag.Parse()
}

func main() {
	os.Exit(run())
}

func loadConfig() (*util.Config, error) {
	config := util.DefaultConfig()
	if cmdArgs.configFile != "" {
		var err error
		config, err = util.ReadConfig(cmdArgs.configFile)
		if err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if cmdArgs.transport != "" {
		config.Server.Transport = cmdArgs.transport
	}
	if cmdArgs.url != "" {
		config.Server.URL = cmdArgs.url
	}
	if cmdArgs.name != "" {
		config.Player.Name = cmdArgs.name
	}
	if cmdArgs.restPort != 0 {
		config.RestPort = cmdArgs.restPort
	}
	return config, config.Validate()
}

func dial(ctx context.Context, config *util.Config) (transport.Conn, error) {
	logger := logging.GetZeroLogger("transport", os.Stderr)
	var conn transport.Conn
	var err error
	switch config.Server.Transport {
	case util.TransportWebsocket:
		conn, err = transport.DialWebsocket(ctx, config.Server.URL, logger)
	default:
		conn, err = transport.DialNATS(config.Server.URL, "euchreclient", logger)
	}
	if err != nil {
		return nil, err
	}
	return transport.Throttle(conn, config.Calls.PerSecond, config.Calls.Burst), nil
}

func run() int {
	config, err := loadConfig()
	if err != nil {
		mainLogger.Error().Msgf("Invalid configuration: %+v", err)
		return 1
	}
	logging.SetLevel(config.LogLevel)
	mainLogger.Info().Msgf("Connecting to %s over %s", config.Server.URL, config.Server.Transport)

	ctx := context.Background()
	conn, err := dial(ctx, config)
	if err != nil {
		mainLogger.Error().Msgf("Unable to connect: %+v", err)
		return 1
	}

	c := client.New(conn, client.Config{
		Name:        config.Player.Name,
		CallTimeout: config.Calls.Timeout,
	}, logging.GetZeroLogger("client", os.Stderr))
	c.OnAdvisory(func(msg string) {
		fmt.Println("!", msg)
	})
	if !cmdArgs.quiet {
		c.OnUpdate(func(t view.Table) {
			fmt.Print(view.Text(t))
		})
	}
	if err := c.Connect(ctx); err != nil {
		mainLogger.Error().Msgf("Unable to join the server: %+v", err)
		c.Close()
		return 1
	}
	defer c.Close()

	if cmdArgs.create {
		c.CreateLobby("")
	} else if cmdArgs.lobby >= 0 {
		c.JoinLobby(cmdArgs.lobby)
	}
	if cmdArgs.seat >= 0 {
		c.Flush()
		c.JoinSeat(game.Seat(cmdArgs.seat))
	}

	if config.RestPort != 0 {
		go func() {
			if err := rest.RunRestServer(c, config.RestPort); err != nil {
				mainLogger.Error().Msgf("Status endpoint stopped: %s", err)
			}
		}()
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	input := c.Input()
	for {
		select {
		case <-signals:
			return 0
		case line, ok := <-lines:
			if !ok {
				return 0
			}
			if strings.HasPrefix(line, ":") {
				if quit := uiCommand(c, line); quit {
					return 0
				}
				continue
			}
			input.SetValue(line)
			input.Key(true, false)
		}
	}
}

// uiCommand handles the clicks a graphical client would make. It returns
// true on :quit.
func uiCommand(c *client.Client, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":card":
		if len(fields) != 2 {
			fmt.Println("usage: :card <index>")
			return false
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("usage: :card <index>")
			return false
		}
		c.ClickCard(index)
	case ":bid":
		c.ClickBid(strings.TrimSpace(strings.TrimPrefix(line, ":bid")))
	case ":start":
		c.StartGame()
	case ":show":
		fmt.Print(view.Text(c.Table()))
	case ":quit":
		return true
	default:
		fmt.Println("commands: :card <index>, :bid <label>, :start, :show, :quit")
	}
	return false
}
