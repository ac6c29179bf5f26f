package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultPort         = 42069
	DefaultLauncherPort = 42070
	DefaultTokenTTL     = 7 * 24 * time.Hour
)

// Environment variables read by Load.
const (
	EnvDBPath       = "DB_PATH"
	EnvHost         = "MINES_HOST"
	EnvPort         = "MINES_PORT"
	EnvLauncherPort = "MINES_LAUNCHER_PORT"
	EnvServerName   = "MINES_SERVER_NAME"
	EnvTokenSecret  = "MINES_TOKEN_SECRET"
	EnvTokenTTL     = "MINES_TOKEN_TTL"
	EnvLogLevel     = "MINES_LOG_LEVEL"
)

type Config struct {
	DBPath string
	Host   string
	Port   int
	// LauncherPort is where the game launcher takes listing and spawn
	// requests.
	LauncherPort int
	ServerName   string
	TokenSecret  string
	TokenTTL     time.Duration
	LogLevel     string
}

type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Key, e.Err)
	}
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Key)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

func Default() Config {
	return Config{
		Host:         "localhost",
		Port:         DefaultPort,
		LauncherPort: DefaultLauncherPort,
		ServerName:   "minesweeper",
		TokenTTL:     DefaultTokenTTL,
		LogLevel:     log.InfoLevel.String(),
	}
}

// Load starts from Default and applies every variable that is set.
func Load() (Config, error) {
	cfg := Default()
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := os.LookupEnv(EnvServerName); ok {
		cfg.ServerName = v
	}
	if v, ok := os.LookupEnv(EnvTokenSecret); ok {
		cfg.TokenSecret = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &InvalidValueError{Key: EnvPort, Value: v, Err: err}
		}
		cfg.Port = port
	}
	if v, ok := os.LookupEnv(EnvLauncherPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &InvalidValueError{Key: EnvLauncherPort, Value: v, Err: err}
		}
		cfg.LauncherPort = port
	}
	if v, ok := os.LookupEnv(EnvTokenTTL); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, &InvalidValueError{Key: EnvTokenTTL, Value: v, Err: err}
		}
		cfg.TokenTTL = ttl
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &InvalidValueError{Key: EnvPort, Value: strconv.Itoa(c.Port)}
	}
	if c.LauncherPort < 0 || c.LauncherPort > 65535 {
		return &InvalidValueError{Key: EnvLauncherPort, Value: strconv.Itoa(c.LauncherPort)}
	}
	if c.TokenTTL <= 0 {
		return &InvalidValueError{Key: EnvTokenTTL, Value: c.TokenTTL.String()}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return &InvalidValueError{Key: EnvLogLevel, Value: c.LogLevel, Err: err}
	}
	return nil
}

// Address is the host:port the server listens on and clients dial.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
