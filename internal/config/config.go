package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GenerationConfig describes the external schedule-generation endpoint.
// The endpoint is treated as an opaque collaborator: it receives a free-text
// prompt and returns markdown, or fails with a generic error.
type GenerationConfig struct {
	// Endpoint is an OpenAI-compatible chat-completions URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Model is the model name passed through to the endpoint.
	Model string `yaml:"model" json:"model"`
	// APIKey is sent as a bearer token. Never logged.
	APIKey string `yaml:"api_key" json:"-"`
	// TimeoutSeconds bounds one generation request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the day's clock times are anchored to
	// (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataDir is where the record store (SQLite) lives.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// ReminderLeadMinutes is how many minutes before a block's start a
	// reminder fires. Zero disables reminders.
	ReminderLeadMinutes int `yaml:"reminder_lead_minutes" json:"reminder_lead_minutes"`

	// ReminderCron is a cron-style spec driving the reminder check
	// (e.g. "@every 30s"). The check interval must stay materially smaller
	// than the lead time; exact alignment is not required.
	ReminderCron string `yaml:"reminder_cron" json:"reminder_cron"`

	// Generation configures the external markdown-schedule generator.
	Generation GenerationConfig `yaml:"generation" json:"generation"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              "127.0.0.1:8080",
		Timezone:            "Local",
		DataDir:             "./data",
		ReminderLeadMinutes: 5,
		ReminderCron:        "@every 30s",
		Generation: GenerationConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.ReminderLeadMinutes < 0 {
		c.ReminderLeadMinutes = 0
	}
	if c.ReminderCron == "" {
		c.ReminderCron = "@every 30s"
	}
	if c.Generation.Endpoint == "" {
		c.Generation.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = 60
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if needed,
//     write a default config with 0600 perms, return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create a default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic (temp file + rename in the same directory) and the
// final file carries 0600 permissions since it may contain an API key.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayflow-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save delegates to the package-level Save function, which keeps call
// sites in the web layer short:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// Location resolves the configured timezone, falling back to time.Local
// for empty, "Local", or unknown names.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
