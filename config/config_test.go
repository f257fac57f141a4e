package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinayprograms/deaddrop/errors"
	"github.com/vinayprograms/deaddrop/store"
)

const sampleConfig = `
poll_millis = 250
task_expiration_millis = 5000
command_retries = 2

[keys]
private_key = "/keys/client.pem"
public_key = "/keys/client.pub"
counterpart_key = "/keys/server.pub"

[store]
backend = "http"
url = "https://drop.example.com/tasks/"
bearer_token = "s3cret"

[server]
command = "sort $DEADDROP_INPUT > $DEADDROP_OUTPUT"
work_dir = "/tmp/deaddrop"

[log]
level = "debug"
format = "json"

[telemetry]
protocol = "file"
endpoint = "/var/log/deaddrop/events.jsonl"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deaddrop.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PollMillis != DefaultPollMillis {
		t.Errorf("PollMillis = %d, want %d", cfg.PollMillis, DefaultPollMillis)
	}
	if cfg.TaskExpirationMillis != DefaultTaskExpirationMillis {
		t.Errorf("TaskExpirationMillis = %d, want %d", cfg.TaskExpirationMillis, DefaultTaskExpirationMillis)
	}
	if cfg.CommandRetries != DefaultCommandRetries {
		t.Errorf("CommandRetries = %d, want %d", cfg.CommandRetries, DefaultCommandRetries)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfigFile(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.PollMillis != 250 {
		t.Errorf("PollMillis = %d, want 250", cfg.PollMillis)
	}
	if cfg.TaskExpirationMillis != 5000 {
		t.Errorf("TaskExpirationMillis = %d, want 5000", cfg.TaskExpirationMillis)
	}
	if cfg.CommandRetries != 2 {
		t.Errorf("CommandRetries = %d, want 2", cfg.CommandRetries)
	}
	if cfg.Keys.PrivateKey != "/keys/client.pem" || cfg.Keys.Counterpart != "/keys/server.pub" {
		t.Errorf("Keys = %+v", cfg.Keys)
	}
	if cfg.Store.Backend != "http" || cfg.Store.URL != "https://drop.example.com/tasks/" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.BearerToken != "s3cret" {
		t.Errorf("BearerToken = %q", cfg.Store.BearerToken)
	}
	if cfg.Server.Command == "" || cfg.Server.WorkDir != "/tmp/deaddrop" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Telemetry.Protocol != "file" {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfigFile(t, "poll_millis = 42\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.PollMillis != 42 {
		t.Errorf("PollMillis = %d, want 42", cfg.PollMillis)
	}
	if cfg.TaskExpirationMillis != DefaultTaskExpirationMillis {
		t.Errorf("TaskExpirationMillis = %d, want default", cfg.TaskExpirationMillis)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	_, err := LoadFile(writeConfigFile(t, "poll_millis = [not\n"))
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEADDROP_POLL_MILLIS", "750")
	t.Setenv("DEADDROP_STORE_BACKEND", "dir")
	t.Setenv("DEADDROP_STORE_DIR", "/data/drop")
	t.Setenv("DEADDROP_COMMAND_RETRIES", "not-a-number")

	cfg, err := Load(writeConfigFile(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PollMillis != 750 {
		t.Errorf("PollMillis = %d, want env override 750", cfg.PollMillis)
	}
	if cfg.Store.Backend != "dir" || cfg.Store.Dir != "/data/drop" {
		t.Errorf("Store = %+v, want dir backend from env", cfg.Store)
	}
	// Unparseable numeric overrides are skipped.
	if cfg.CommandRetries != 2 {
		t.Errorf("CommandRetries = %d, want file value 2", cfg.CommandRetries)
	}
	// Untouched fields keep their file values.
	if cfg.Keys.PrivateKey != "/keys/client.pem" {
		t.Errorf("Keys.PrivateKey = %q", cfg.Keys.PrivateKey)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollMillis != DefaultPollMillis {
		t.Errorf("PollMillis = %d, want default", cfg.PollMillis)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Keys = KeysConfig{PrivateKey: "a.pem", PublicKey: "b.pem", Counterpart: "c.pem"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero poll", func(c *Config) { c.PollMillis = 0 }, true},
		{"zero expiration", func(c *Config) { c.TaskExpirationMillis = 0 }, true},
		{"negative retries", func(c *Config) { c.CommandRetries = -1 }, true},
		{"missing private key", func(c *Config) { c.Keys.PrivateKey = "" }, true},
		{"missing counterpart", func(c *Config) { c.Keys.Counterpart = "" }, true},
		{"dir backend without dir", func(c *Config) { c.Store = StoreConfig{Backend: "dir"} }, true},
		{"http backend without url", func(c *Config) { c.Store = StoreConfig{Backend: "http"} }, true},
		{"nats backend without url", func(c *Config) { c.Store = StoreConfig{Backend: "nats"} }, true},
		{"unknown backend", func(c *Config) { c.Store = StoreConfig{Backend: "ftp"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	cfg.Keys = KeysConfig{PrivateKey: "a.pem", PublicKey: "b.pem", Counterpart: "c.pem"}

	if err := cfg.ValidateServer(); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error without a command, got %v", err)
	}

	cfg.Server.Command = "cp $DEADDROP_INPUT $DEADDROP_OUTPUT"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer() error = %v", err)
	}
}

func TestDurations(t *testing.T) {
	cfg := Config{PollMillis: 1500, TaskExpirationMillis: 90000}
	if cfg.PollInterval() != 1500*time.Millisecond {
		t.Errorf("PollInterval() = %v", cfg.PollInterval())
	}
	if cfg.TaskExpiration() != 90*time.Second {
		t.Errorf("TaskExpiration() = %v", cfg.TaskExpiration())
	}
}

func TestOpenStore_Memory(t *testing.T) {
	st, err := OpenStore(StoreConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("expected a MemoryStore, got %T", st)
	}
}

func TestOpenStore_Dir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "objects")
	st, err := OpenStore(StoreConfig{Backend: "dir", Dir: dir})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer st.Close()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected the backing directory to exist: %v", err)
	}
}

func TestOpenStore_HTTP(t *testing.T) {
	st, err := OpenStore(StoreConfig{Backend: "http", URL: "http://localhost:9999/drop"})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	st.Close()
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := OpenStore(StoreConfig{Backend: "carrier-pigeon"})
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
