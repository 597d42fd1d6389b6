package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Session   SessionConfig   `yaml:"session"`
	Jira      JiraConfig      `yaml:"jira"`
	GitHub    GitHubConfig    `yaml:"github"`
	Codemagic CodemagicConfig `yaml:"codemagic"`
	Graph     GraphConfig     `yaml:"graph"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// MongoConfig contains document database settings.
type MongoConfig struct {
	URI      string `yaml:"-"` // env-only, never in YAML
	Database string `yaml:"database"`
}

// SessionConfig contains dashboard session verification settings.
// Secret is the HMAC key shared with the identity gateway that mints
// session tokens; ManagerEmails is the allow-list for manager-only routes.
type SessionConfig struct {
	Secret        string   `yaml:"-"` // env-only, never in YAML
	ManagerEmails []string `yaml:"manager_emails"`
}

// JiraConfig contains ticket tracker settings. Host is the bare hostname
// (e.g. "acme.atlassian.net"); the same host serves the wiki under /wiki.
type JiraConfig struct {
	Host             string `yaml:"host"`
	Email            string `yaml:"email"`
	APIToken         string `yaml:"-"` // env-only, never in YAML
	ProjectKey       string `yaml:"project_key"`
	DeliveryBoardID  string `yaml:"delivery_board_id"`
	OperationBoardID string `yaml:"operation_board_id"`
}

// Configured reports whether the minimal Jira credentials are present.
func (c JiraConfig) Configured() bool {
	return c.Host != "" && c.Email != "" && c.APIToken != ""
}

// GitHubConfig contains GitHub Actions build monitor settings.
type GitHubConfig struct {
	Token string   `yaml:"-"` // env-only, never in YAML
	Owner string   `yaml:"owner"`
	Repos []string `yaml:"repos"`
}

// CodemagicConfig contains Codemagic CI settings.
type CodemagicConfig struct {
	Token string `yaml:"-"` // env-only, never in YAML
}

// GraphConfig contains Microsoft Graph (Entra ID) app credentials used
// for the team directory and avatar proxy.
type GraphConfig struct {
	ClientID     string `yaml:"-"` // env-only, never in YAML
	ClientSecret string `yaml:"-"` // env-only, never in YAML
	TenantID     string `yaml:"-"` // env-only, never in YAML
}

// Configured reports whether the Graph app registration is usable.
func (c GraphConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != ""
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("HUDDLE_CONFIG_PATH", "config/huddle.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Mongo: MongoConfig{
			Database: "huddle",
		},
		Jira: JiraConfig{
			ProjectKey: "RAL",
		},
		GitHub: GitHubConfig{
			Repos: []string{
				"rally-dashboard",
				"rally-backend-api",
				"rally-backend-realtime",
				"rally-structurizr",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values. Provider credentials use
// their conventional variable names rather than HUDDLE_-prefixed ones.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("HUDDLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HUDDLE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("HUDDLE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("HUDDLE_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Mongo
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DB"); v != "" {
		cfg.Mongo.Database = v
	}

	// Session
	if v := os.Getenv("HUDDLE_SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("HUDDLE_MANAGER_EMAILS"); v != "" {
		cfg.Session.ManagerEmails = splitList(v)
	}

	// Jira
	if v := os.Getenv("JIRA_HOST"); v != "" {
		cfg.Jira.Host = v
	}
	if v := os.Getenv("JIRA_EMAIL"); v != "" {
		cfg.Jira.Email = v
	}
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		cfg.Jira.APIToken = v
	}
	if v := os.Getenv("JIRA_PROJECT_KEY"); v != "" {
		cfg.Jira.ProjectKey = v
	}
	if v := os.Getenv("JIRA_DELIVERY_BOARD_ID"); v != "" {
		cfg.Jira.DeliveryBoardID = v
	}
	if v := os.Getenv("JIRA_OPERATION_BOARD_ID"); v != "" {
		cfg.Jira.OperationBoardID = v
	}

	// GitHub
	if v := os.Getenv("GH_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GH_OWNER"); v != "" {
		cfg.GitHub.Owner = v
	}
	if v := os.Getenv("GH_REPOS"); v != "" {
		cfg.GitHub.Repos = splitList(v)
	}

	// Codemagic
	if v := os.Getenv("CODEMAGIC_TOKEN"); v != "" {
		cfg.Codemagic.Token = v
	}

	// Microsoft Graph
	if v := os.Getenv("AZURE_AD_CLIENT_ID"); v != "" {
		cfg.Graph.ClientID = v
	}
	if v := os.Getenv("AZURE_AD_CLIENT_SECRET"); v != "" {
		cfg.Graph.ClientSecret = v
	}
	if v := os.Getenv("AZURE_AD_TENANT_ID"); v != "" {
		cfg.Graph.TenantID = v
	}

	// Log
	if v := os.Getenv("HUDDLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HUDDLE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// Only values the process cannot serve anything without are required here;
// per-provider credentials are checked at each endpoint so that a missing
// Jira token degrades that feature instead of blocking startup.
// In dev mode (HUDDLE_DEV_MODE=true), validation is skipped.
func (c *Config) validate() error {
	if os.Getenv("HUDDLE_DEV_MODE") == "true" {
		return nil
	}

	if c.Mongo.URI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.Session.Secret == "" {
		return errors.New("HUDDLE_SESSION_SECRET is required")
	}
	return nil
}

// splitList parses a comma-separated env value into trimmed entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
