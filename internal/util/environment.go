package util

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"voyager.com/euchre/logging"
)

var environmentLogger = logging.GetZeroLogger("util::environment", nil)

type environment struct {
	Transport      string
	NatsURL        string
	WebsocketURL   string
	PlayerName     string
	CallTimeout    string
	CallsPerSecond string
	RestPort       string
	LogLevel       string
}

// Env is a helper object for accessing environment variables.
var Env = &environment{
	Transport:      "EUCHRE_TRANSPORT",
	NatsURL:        "NATS_URL",
	WebsocketURL:   "EUCHRE_WS_URL",
	PlayerName:     "EUCHRE_PLAYER_NAME",
	CallTimeout:    "EUCHRE_CALL_TIMEOUT",
	CallsPerSecond: "EUCHRE_CALLS_PER_SECOND",
	RestPort:       "EUCHRE_REST_PORT",
	LogLevel:       "LOG_LEVEL",
}

func (e *environment) GetTransport() string {
	return os.Getenv(e.Transport)
}

func (e *environment) GetNatsURL() string {
	return os.Getenv(e.NatsURL)
}

func (e *environment) GetWebsocketURL() string {
	return os.Getenv(e.WebsocketURL)
}

func (e *environment) GetPlayerName() string {
	return os.Getenv(e.PlayerName)
}

func (e *environment) GetLogLevel() string {
	return os.Getenv(e.LogLevel)
}

// GetCallTimeout returns zero when the variable is unset.
func (e *environment) GetCallTimeout() (time.Duration, error) {
	v := os.Getenv(e.CallTimeout)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		msg := fmt.Sprintf("Invalid call timeout %s", v)
		environmentLogger.Error().Msg(msg)
		return 0, err
	}
	return d, nil
}

func (e *environment) GetCallsPerSecond() (float64, error) {
	v := os.Getenv(e.CallsPerSecond)
	if v == "" {
		return 0, nil
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		msg := fmt.Sprintf("Invalid calls per second %s", v)
		environmentLogger.Error().Msg(msg)
		return 0, err
	}
	return rate, nil
}

func (e *environment) GetRestPort() (uint, error) {
	v := os.Getenv(e.RestPort)
	if v == "" {
		return 0, nil
	}
	portNum, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		msg := fmt.Sprintf("Invalid REST port %s", v)
		environmentLogger.Error().Msg(msg)
		return 0, err
	}
	return uint(portNum), nil
}
