package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Provider.APIKey = expandEnvVars(cfg.Provider.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Agent.Host == "" {
		cfg.Agent.Host = "127.0.0.1"
	}
	if cfg.Agent.Port == 0 {
		cfg.Agent.Port = 62996
	}
	if cfg.Agent.StartupRetries == 0 {
		cfg.Agent.StartupRetries = 5
	}
	if cfg.Provider.Mode == "" {
		cfg.Provider.Mode = "smart_approve"
	}
	if cfg.Provider.MaxTurns == 0 {
		cfg.Provider.MaxTurns = 1000
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "system"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads the agent's well-known environment variables and
// overrides config values so goosectl agrees with what the daemon sees.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOOSE_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("GOOSE_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("GOOSE_MODE"); v != "" {
		cfg.Provider.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("GOOSE_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.MaxTurns = n
		}
	}
	if v := os.Getenv("GOOSE_AUTO_COMPACT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Provider.AutoCompactThreshold = &f
		}
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Provider.OllamaHost = v
	}
	if v := os.Getenv("GOOSECTL_AGENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Agent.Port = port
		}
	}
	if v := os.Getenv("GOOSECTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
