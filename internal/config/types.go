package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Config is the root configuration for goosectl. It lives alongside the
// agent's own config.yaml; the `extensions` key of the same file is
// managed separately by the extension store.
type Config struct {
	Agent    AgentConfig    `yaml:"agent,omitempty"`
	Provider ProviderConfig `yaml:"provider,omitempty"`
	UI       UIConfig       `yaml:"ui,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// AgentConfig describes how to reach the local agent daemon.
type AgentConfig struct {
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	SecretKeyFile  string `yaml:"secretKeyFile,omitempty"` // file holding the X-Secret-Key value
	StartupRetries int    `yaml:"startupRetries,omitempty"` // extension registration retry budget
}

// URL returns the base URL of the agent daemon.
func (a AgentConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", a.Host, a.Port)
}

// ProviderConfig mirrors the provider settings the agent reads from its
// environment (GOOSE_PROVIDER, GOOSE_MODEL, ...).
type ProviderConfig struct {
	Name                 string   `yaml:"name,omitempty"`  // GOOSE_PROVIDER
	Model                string   `yaml:"model,omitempty"` // GOOSE_MODEL
	Mode                 string   `yaml:"mode,omitempty"`  // GOOSE_MODE: "auto" | "approve" | "chat" | "smart_approve"
	MaxTurns             int      `yaml:"maxTurns,omitempty"`
	AutoCompactThreshold *float64 `yaml:"autoCompactThreshold,omitempty"` // 0..1, nil means agent default
	OllamaHost           string   `yaml:"ollamaHost,omitempty"`           // OLLAMA_HOST
	APIKey               string   `yaml:"apiKey,omitempty"`               // may be ${ENV_VAR}
}

// UIConfig holds client-side preferences persisted across runs.
type UIConfig struct {
	Theme     string          `yaml:"theme,omitempty"` // "light" | "dark" | "system"
	Dictation DictationConfig `yaml:"dictation,omitempty"`
}

// DictationConfig configures voice dictation preferences.
type DictationConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Provider string `yaml:"provider,omitempty"`
	Locale   string `yaml:"locale,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Agent: AgentConfig{
			Host:           "127.0.0.1",
			Port:           62996,
			StartupRetries: 5,
		},
		Provider: ProviderConfig{
			Mode:     "smart_approve",
			MaxTurns: 1000,
		},
		UI: UIConfig{
			Theme: "system",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
