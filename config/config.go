// Package config loads deaddrop settings from TOML files, .env files, and
// DEADDROP_* environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/vinayprograms/deaddrop/envelope"
	"github.com/vinayprograms/deaddrop/errors"
	"github.com/vinayprograms/deaddrop/logging"
	"github.com/vinayprograms/deaddrop/store"
)

// Timing defaults, applied where the file and environment are silent.
const (
	DefaultPollMillis           = 1000
	DefaultTaskExpirationMillis = 60000
	DefaultCommandRetries       = 3
)

// Config is the full configuration surface for both roles. The client
// ignores the [server] section.
type Config struct {
	PollMillis           int64 `toml:"poll_millis"`
	TaskExpirationMillis int64 `toml:"task_expiration_millis"`
	CommandRetries       int   `toml:"command_retries"`

	Keys      KeysConfig      `toml:"keys"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// KeysConfig names the PEM files holding local and counterpart key material.
type KeysConfig struct {
	PrivateKey  string `toml:"private_key"`
	PublicKey   string `toml:"public_key"`
	Counterpart string `toml:"counterpart_key"`
}

// StoreConfig selects and parameterizes the object-store backend.
type StoreConfig struct {
	Backend     string `toml:"backend"` // memory, dir, http or nats
	Dir         string `toml:"dir"`
	URL         string `toml:"url"`
	Bucket      string `toml:"bucket"`
	BearerToken string `toml:"bearer_token"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

// ServerConfig holds the worker-side command settings.
type ServerConfig struct {
	Command string `toml:"command"`
	WorkDir string `toml:"work_dir"`
}

// LogConfig mirrors logging.Config at the file level.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TelemetryConfig selects an event exporter.
type TelemetryConfig struct {
	Protocol string `toml:"protocol"` // http, file or noop
	Endpoint string `toml:"endpoint"`
}

// Default returns a configuration with timing defaults and a memory store.
func Default() Config {
	return Config{
		PollMillis:           DefaultPollMillis,
		TaskExpirationMillis: DefaultTaskExpirationMillis,
		CommandRetries:       DefaultCommandRetries,
		Store:                StoreConfig{Backend: "memory"},
		Log:                  LogConfig{Level: "info", Format: "console"},
	}
}

// LoadFile reads a TOML configuration file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Configuration("failed to read config file: "+path, errors.WithCause(err))
	}
	if _, err := toml.Decode(string(content), &cfg); err != nil {
		return cfg, errors.Configuration("failed to parse config file: "+path, errors.WithCause(err))
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the TOML file at
// path (skipped when path is empty), then DEADDROP_* environment variables.
// A .env file in the working directory is folded into the environment first.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	envInt64("DEADDROP_POLL_MILLIS", &c.PollMillis)
	envInt64("DEADDROP_TASK_EXPIRATION_MILLIS", &c.TaskExpirationMillis)
	envInt("DEADDROP_COMMAND_RETRIES", &c.CommandRetries)
	envString("DEADDROP_PRIVATE_KEY", &c.Keys.PrivateKey)
	envString("DEADDROP_PUBLIC_KEY", &c.Keys.PublicKey)
	envString("DEADDROP_COUNTERPART_KEY", &c.Keys.Counterpart)
	envString("DEADDROP_STORE_BACKEND", &c.Store.Backend)
	envString("DEADDROP_STORE_DIR", &c.Store.Dir)
	envString("DEADDROP_STORE_URL", &c.Store.URL)
	envString("DEADDROP_STORE_BUCKET", &c.Store.Bucket)
	envString("DEADDROP_STORE_BEARER_TOKEN", &c.Store.BearerToken)
	envString("DEADDROP_STORE_USERNAME", &c.Store.Username)
	envString("DEADDROP_STORE_PASSWORD", &c.Store.Password)
	envString("DEADDROP_SERVER_COMMAND", &c.Server.Command)
	envString("DEADDROP_SERVER_WORK_DIR", &c.Server.WorkDir)
	envString("DEADDROP_LOG_LEVEL", &c.Log.Level)
	envString("DEADDROP_LOG_FORMAT", &c.Log.Format)
	envString("DEADDROP_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envString("DEADDROP_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Malformed numeric values are skipped, keeping the prior setting.
func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// PollInterval returns the sleep between poll cycles.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollMillis) * time.Millisecond
}

// TaskExpiration returns the client timeout; the sweeper reclaims objects
// past twice this window.
func (c Config) TaskExpiration() time.Duration {
	return time.Duration(c.TaskExpirationMillis) * time.Millisecond
}

// Validate checks the fields both roles require.
func (c Config) Validate() error {
	if c.PollMillis <= 0 {
		return errors.Configuration("poll_millis must be positive")
	}
	if c.TaskExpirationMillis <= 0 {
		return errors.Configuration("task_expiration_millis must be positive")
	}
	if c.CommandRetries < 0 {
		return errors.Configuration("command_retries must not be negative")
	}
	if c.Keys.PrivateKey == "" || c.Keys.PublicKey == "" || c.Keys.Counterpart == "" {
		return errors.Configuration("key material paths are required: private_key, public_key, counterpart_key")
	}
	return c.Store.validate()
}

// ValidateServer checks Validate plus the server-only fields.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.Command == "" {
		return errors.Configuration("server.command is required")
	}
	return nil
}

func (s StoreConfig) validate() error {
	switch s.Backend {
	case "memory":
	case "dir":
		if s.Dir == "" {
			return errors.Configuration("store.dir is required for the dir backend")
		}
	case "http", "nats":
		if s.URL == "" {
			return errors.Configuration("store.url is required for the " + s.Backend + " backend")
		}
	default:
		return errors.Configuration("unknown store backend: " + s.Backend)
	}
	return nil
}

// LoadKeys loads and self-tests the configured key material.
func (c Config) LoadKeys() (*envelope.KeyMaterial, error) {
	return envelope.Load(c.Keys.PrivateKey, c.Keys.PublicKey, c.Keys.Counterpart)
}

// NewLogger builds a logger from the log section.
func (c Config) NewLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.Level(c.Log.Level),
		Format: logging.Format(c.Log.Format),
	})
}

// OpenStore builds the configured store backend. A NATS connection opened
// here is owned by the returned store and closed with it.
func OpenStore(sc StoreConfig) (store.Store, error) {
	switch sc.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "dir":
		return store.NewDirStore(sc.Dir)
	case "http":
		return store.NewHTTPStore(store.HTTPStoreConfig{
			BaseURL:     sc.URL,
			BearerToken: sc.BearerToken,
			Username:    sc.Username,
			Password:    sc.Password,
		})
	case "nats":
		conn, err := nats.Connect(sc.URL)
		if err != nil {
			return nil, errors.Configuration("failed to connect to NATS at "+sc.URL, errors.WithCause(err))
		}
		ns, err := store.NewNATSStore(store.NATSStoreConfig{Conn: conn, Bucket: sc.Bucket})
		if err != nil {
			conn.Close()
			return nil, err
		}
		return &ownedConnStore{NATSStore: ns, conn: conn}, nil
	default:
		return nil, errors.Configuration("unknown store backend: " + sc.Backend)
	}
}

// ownedConnStore closes the NATS connection it opened along with the store.
type ownedConnStore struct {
	*store.NATSStore
	conn *nats.Conn
}

func (s *ownedConnStore) Close() error {
	err := s.NATSStore.Close()
	s.conn.Close()
	return err
}
