package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Agent.Port < 0 || cfg.Agent.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Agent.Port),
		})
	}
	if cfg.Agent.StartupRetries < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.startupRetries",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Agent.StartupRetries),
		})
	}

	validModes := []string{"auto", "approve", "chat", "smart_approve"}
	if cfg.Provider.Mode != "" && !slices.Contains(validModes, cfg.Provider.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "provider.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validModes, cfg.Provider.Mode),
		})
	}
	if cfg.Provider.MaxTurns < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "provider.maxTurns",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Provider.MaxTurns),
		})
	}
	if t := cfg.Provider.AutoCompactThreshold; t != nil && (*t < 0 || *t > 1) {
		issues = append(issues, ValidationIssue{
			Path:    "provider.autoCompactThreshold",
			Message: fmt.Sprintf("must be within 0..1, got %v", *t),
		})
	}

	validThemes := []string{"light", "dark", "system"}
	if cfg.UI.Theme != "" && !slices.Contains(validThemes, cfg.UI.Theme) {
		issues = append(issues, ValidationIssue{
			Path:    "ui.theme",
			Message: fmt.Sprintf("must be one of %v, got %q", validThemes, cfg.UI.Theme),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
