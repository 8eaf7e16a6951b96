package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the relay configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultGRPCPort          = 50051
	DefaultWSPath            = "/ws"
	DefaultLogLevel          = "info"
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultStatsInterval     = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultSendBuffer        = 256
	DefaultMaxMessageSize    = 1 << 20
)

// Config holds the relay configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all relay settings.
type ServerConfig struct {
	// HTTPPort serves the WebSocket endpoint, the admin API and /metrics (default 8080).
	HTTPPort int `yaml:"http_port"`

	// GRPCPort serves the gRPC health service (default 50051). 0 disables it.
	GRPCPort int `yaml:"grpc_port"`

	// WSPath is the upgrade endpoint path (default "/ws").
	WSPath string `yaml:"ws_path"`

	// LogLevel is one of: debug | info | warn | error. Hot reloadable.
	LogLevel string `yaml:"log_level"`

	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Stats     StatsConfig     `yaml:"stats"`
	Transport TransportConfig `yaml:"transport"`

	// AdminAuth guards the admin API, /metrics and the gRPC health service.
	// The relay socket itself is never authenticated here.
	AdminAuth AuthConfig `yaml:"admin_auth"`
}

// HeartbeatConfig controls per-connection liveness probing.
type HeartbeatConfig struct {
	// Interval between ping frames (default 30s).
	Interval time.Duration `yaml:"interval"`
}

// StatsConfig controls the periodic stats log record.
type StatsConfig struct {
	// Interval between records (default 60s).
	Interval time.Duration `yaml:"interval"`
}

// TransportConfig bounds per-connection socket resources.
type TransportConfig struct {
	// WriteTimeout is the deadline for one frame or ping write (default 10s).
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// SendBuffer is the per-connection outgoing frame queue depth (default 256).
	// A recipient whose queue is full misses the frame.
	SendBuffer int `yaml:"send_buffer"`

	// MaxMessageSize is the largest inbound frame in bytes (default 1 MiB).
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// AuthConfig controls admin-surface authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header / gRPC metadata key carrying the key.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return strings.ToLower(a.Header)
	}
	return "x-api-key"
}

// Level returns the slog level for LogLevel. Unknown values map to info;
// Load rejects them before this is reached.
func (s ServerConfig) Level() slog.Level {
	lvl, err := ParseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel converts a config log level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: want debug|info|warn|error", s)
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relay config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("relay config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is also
// what the server runs with when no config file is present.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
			WSPath:   DefaultWSPath,
			LogLevel: DefaultLogLevel,
			Heartbeat: HeartbeatConfig{
				Interval: DefaultHeartbeatInterval,
			},
			Stats: StatsConfig{
				Interval: DefaultStatsInterval,
			},
			Transport: TransportConfig{
				WriteTimeout:   DefaultWriteTimeout,
				SendBuffer:     DefaultSendBuffer,
				MaxMessageSize: DefaultMaxMessageSize,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.GRPCPort < 0 || s.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", s.GRPCPort)
	}
	if s.GRPCPort != 0 && s.GRPCPort == s.HTTPPort {
		return fmt.Errorf("server.grpc_port and server.http_port must differ (both %d)", s.HTTPPort)
	}
	if !strings.HasPrefix(s.WSPath, "/") {
		return fmt.Errorf("server.ws_path %q must start with /", s.WSPath)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("server.log_level: %w", err)
	}
	if s.Heartbeat.Interval <= 0 {
		return fmt.Errorf("server.heartbeat.interval must be positive")
	}
	if s.Stats.Interval <= 0 {
		return fmt.Errorf("server.stats.interval must be positive")
	}
	if s.Transport.WriteTimeout <= 0 {
		return fmt.Errorf("server.transport.write_timeout must be positive")
	}
	if s.Transport.SendBuffer <= 0 {
		return fmt.Errorf("server.transport.send_buffer must be positive")
	}
	if s.Transport.MaxMessageSize <= 0 {
		return fmt.Errorf("server.transport.max_message_size must be positive")
	}
	switch s.AdminAuth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.admin_auth.mode %q unknown: want apikey|none", s.AdminAuth.Mode)
	}
	return nil
}
