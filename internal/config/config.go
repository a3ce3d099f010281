// ABOUTME: Configuration loading and parsing for scribe-gateway
// ABOUTME: Supports YAML files with environment variable expansion, defaults, and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete scribe-gateway configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	LLM          LLMConfig          `yaml:"llm"`
	Conversation ConversationConfig `yaml:"conversation"`
	Push         PushConfig         `yaml:"push"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EnvDBPath overrides database.path when set.
const EnvDBPath = "SCRIBE_DB_PATH"

// ResolvedPath returns the database file to open, honoring EnvDBPath.
func (d DatabaseConfig) ResolvedPath() string {
	if envPath := os.Getenv(EnvDBPath); envPath != "" {
		return envPath
	}
	return d.Path
}

// LLM provider names
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// LLMConfig holds the inference endpoint and the per-purpose model settings
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// RequestsPerSecond caps calls to the provider; zero disables the limiter
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	Classifier ModelConfig `yaml:"classifier"`
	Generation ModelConfig `yaml:"generation"`
	Extraction ModelConfig `yaml:"extraction"`
}

// ModelConfig holds sampling parameters for one kind of call
type ModelConfig struct {
	Model           string   `yaml:"model"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	Temperature     float64  `yaml:"temperature"`
	TopP            float64  `yaml:"top_p"`
	TopK            int      `yaml:"top_k"`
	StopSequences   []string `yaml:"stop_sequences"`
}

// ConversationConfig controls turn handling
type ConversationConfig struct {
	// SerializeSessions makes conversational turns of one session run one at a time.
	// A pointer so an explicit false survives defaulting.
	SerializeSessions *bool  `yaml:"serialize_sessions"`
	DedupeSize        int    `yaml:"dedupe_size"`
	DefaultKind       string `yaml:"default_kind"`

	TurnTimeout    time.Duration `yaml:"-"`
	PersistTimeout time.Duration `yaml:"-"`
	DedupeTTL      time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TurnTimeoutRaw    string `yaml:"turn_timeout"`
	PersistTimeoutRaw string `yaml:"persist_timeout"`
	DedupeTTLRaw      string `yaml:"dedupe_ttl"`
}

// Serialize reports whether per-session serialization is enabled
func (c ConversationConfig) Serialize() bool {
	return c.SerializeSessions == nil || *c.SerializeSessions
}

// Push backend names
const (
	PushWebSocket = "websocket"
	PushNATS      = "nats"
)

// PushConfig selects and tunes the channel that delivers stream fragments
type PushConfig struct {
	Backend       string `yaml:"backend"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	SendBuffer    int    `yaml:"send_buffer"`

	WriteTimeout time.Duration `yaml:"-"`
	PingInterval time.Duration `yaml:"-"`

	WriteTimeoutRaw string `yaml:"write_timeout"`
	PingIntervalRaw string `yaml:"ping_interval"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultPath returns the config path from SCRIBE_CONFIG or the XDG location.
func DefaultPath() string {
	if p := os.Getenv("SCRIBE_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "scribe", "gateway.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values and defaults are applied
// before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills unset fields. The model defaults mirror the values the
// prompts were tuned against: deterministic sampling and a human-turn stop sequence.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	if c.LLM.Burst == 0 && c.LLM.RequestsPerSecond > 0 {
		c.LLM.Burst = 1
	}

	defaultModel(&c.LLM.Classifier, c.LLM.Model, 10)
	defaultModel(&c.LLM.Generation, c.LLM.Model, 1024)
	defaultModel(&c.LLM.Extraction, c.LLM.Model, 256)

	if c.Conversation.TurnTimeout == 0 {
		c.Conversation.TurnTimeout = 2 * time.Minute
	}
	if c.Conversation.PersistTimeout == 0 {
		c.Conversation.PersistTimeout = 5 * time.Second
	}
	if c.Conversation.DedupeTTL == 0 {
		c.Conversation.DedupeTTL = 10 * time.Minute
	}
	if c.Conversation.DedupeSize == 0 {
		c.Conversation.DedupeSize = 10000
	}
	if c.Conversation.DefaultKind == "" {
		c.Conversation.DefaultKind = "achievement"
	}

	if c.Push.Backend == "" {
		c.Push.Backend = PushWebSocket
	}
	if c.Push.SubjectPrefix == "" {
		c.Push.SubjectPrefix = "scribe.push"
	}
	if c.Push.SendBuffer == 0 {
		c.Push.SendBuffer = 64
	}
	if c.Push.WriteTimeout == 0 {
		c.Push.WriteTimeout = 10 * time.Second
	}
	if c.Push.PingInterval == 0 {
		c.Push.PingInterval = 30 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func defaultModel(m *ModelConfig, model string, maxTokens int) {
	if m.Model == "" {
		m.Model = model
	}
	if m.MaxOutputTokens == 0 {
		m.MaxOutputTokens = maxTokens
	}
	if m.TopP == 0 {
		m.TopP = 1
	}
	if m.TopK == 0 {
		m.TopK = 50
	}
	if m.StopSequences == nil {
		m.StopSequences = []string{"\n\nHuman"}
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.Model == "" && c.LLM.Generation.Model == "" {
			return fmt.Errorf("llm.model is required for provider %q", c.LLM.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenAI, ProviderMock, c.LLM.Provider)
	}

	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must not be negative")
	}

	for name, m := range map[string]ModelConfig{
		"classifier": c.LLM.Classifier,
		"generation": c.LLM.Generation,
		"extraction": c.LLM.Extraction,
	} {
		if m.MaxOutputTokens < 0 {
			return fmt.Errorf("llm.%s.max_output_tokens must not be negative", name)
		}
		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("llm.%s.temperature must be between 0 and 2", name)
		}
		if m.TopP < 0 || m.TopP > 1 {
			return fmt.Errorf("llm.%s.top_p must be between 0 and 1", name)
		}
	}

	switch c.Push.Backend {
	case PushWebSocket:
	case PushNATS:
		if c.Push.NATSURL == "" {
			return fmt.Errorf("push.nats_url is required when push.backend is %q", PushNATS)
		}
	default:
		return fmt.Errorf("push.backend must be %q or %q, got %q", PushWebSocket, PushNATS, c.Push.Backend)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"turn_timeout", cfg.Conversation.TurnTimeoutRaw, &cfg.Conversation.TurnTimeout},
		{"persist_timeout", cfg.Conversation.PersistTimeoutRaw, &cfg.Conversation.PersistTimeout},
		{"dedupe_ttl", cfg.Conversation.DedupeTTLRaw, &cfg.Conversation.DedupeTTL},
		{"write_timeout", cfg.Push.WriteTimeoutRaw, &cfg.Push.WriteTimeout},
		{"ping_interval", cfg.Push.PingIntervalRaw, &cfg.Push.PingInterval},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		if d < 0 {
			return fmt.Errorf("parsing %s %q: must not be negative", f.name, f.raw)
		}
		*f.dst = d
	}

	return nil
}
