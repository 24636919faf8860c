package util

import (
	"io/ioutil"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	TransportNATS      = "nats"
	TransportWebsocket = "websocket"
)

var validTransports = mapset.NewSet(TransportNATS, TransportWebsocket)

// Config is the client configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Player PlayerConfig `yaml:"player"`
	Calls  CallConfig   `yaml:"calls"`
	// RestPort serves the status endpoint when not zero.
	RestPort uint   `yaml:"rest-port"`
	LogLevel string `yaml:"log-level"`
}

type ServerConfig struct {
	Transport string `yaml:"transport"`
	URL       string `yaml:"url"`
}

type PlayerConfig struct {
	Name string `yaml:"name"`
}

type CallConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// PerSecond limits outbound calls. Zero disables the limit.
	PerSecond float64 `yaml:"per-second"`
	Burst     int     `yaml:"burst"`
}

// DefaultConfig connects to a local NATS server.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: TransportNATS,
			URL:       "nats://localhost:4222",
		},
		Calls: CallConfig{
			Timeout: 10 * time.Second,
			Burst:   1,
		},
		LogLevel: "info",
	}
}

// ReadConfig reads a YAML config file over the defaults.
func ReadConfig(fileName string) (*Config, error) {
	bytes, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading config file [%s]", fileName)
	}
	return ParseConfig(bytes)
}

// ParseConfig parses YAML config content over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "Error parsing YAML config")
	}
	return config, nil
}

// ApplyEnv overrides the settings with the environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v := Env.GetTransport(); v != "" {
		c.Server.Transport = v
	}
	switch c.Server.Transport {
	case TransportNATS:
		if v := Env.GetNatsURL(); v != "" {
			c.Server.URL = v
		}
	case TransportWebsocket:
		if v := Env.GetWebsocketURL(); v != "" {
			c.Server.URL = v
		}
	}
	if v := Env.GetPlayerName(); v != "" {
		c.Player.Name = v
	}
	if v := Env.GetLogLevel(); v != "" {
		c.LogLevel = v
	}
	timeout, err := Env.GetCallTimeout()
	if err != nil {
		return errors.Wrap(err, "Invalid environment")
	}
	if timeout != 0 {
		c.Calls.Timeout = timeout
	}
	perSecond, err := Env.GetCallsPerSecond()
	if err != nil {
		return errors.Wrap(err, "Invalid environment")
	}
	if perSecond != 0 {
		c.Calls.PerSecond = perSecond
	}
	port, err := Env.GetRestPort()
	if err != nil {
		return errors.Wrap(err, "Invalid environment")
	}
	if port != 0 {
		c.RestPort = port
	}
	return nil
}

// Validate checks the settings that can't be checked by parsing alone.
func (c *Config) Validate() error {
	if !validTransports.Contains(c.Server.Transport) {
		return errors.Errorf("Unknown transport [%s]; expected one of %v", c.Server.Transport, validTransports.ToSlice())
	}
	if c.Server.URL == "" {
		return errors.New("Server URL is not set")
	}
	if c.Calls.Timeout < 0 {
		return errors.Errorf("Negative call timeout %s", c.Calls.Timeout)
	}
	if c.Calls.PerSecond < 0 {
		return errors.Errorf("Negative call rate %v", c.Calls.PerSecond)
	}
	if c.Calls.PerSecond > 0 && c.Calls.Burst < 1 {
		return errors.Errorf("Call burst must be at least 1 when rate limiting, got %d", c.Calls.Burst)
	}
	return nil
}
