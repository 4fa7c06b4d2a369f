// Package extension manages the agent's pluggable tool sources: their
// configuration variants, the persisted enabled/disabled registry, and
// the two-phase activation against a running agent.
package extension

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultTimeout is the per-extension startup timeout in seconds.
const DefaultTimeout = 300

// Type discriminates extension transport variants.
type Type string

const (
	TypeBuiltin        Type = "builtin"
	TypeStdio          Type = "stdio"
	TypeSSE            Type = "sse"
	TypeStreamableHTTP Type = "streamable_http"
)

// Config describes one extension. Which fields apply depends on Type:
// stdio uses Cmd/Args/Envs/EnvKeys, sse and streamable_http use
// URI/Headers, builtin needs only the name.
type Config struct {
	Type        Type              `yaml:"type" json:"type"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Cmd         string            `yaml:"cmd,omitempty" json:"cmd,omitempty"`
	Args        []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Envs        map[string]string `yaml:"envs,omitempty" json:"envs,omitempty"`
	EnvKeys     []string          `yaml:"env_keys,omitempty" json:"env_keys,omitempty"` // secret names the agent resolves at launch
	URI         string            `yaml:"uri,omitempty" json:"uri,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Timeout     int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	Bundled     bool              `yaml:"bundled,omitempty" json:"bundled,omitempty"`
}

// Key returns the registry key for this extension: the name with all
// whitespace stripped, lowercased.
func (c Config) Key() string {
	var b strings.Builder
	for _, r := range c.Name {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// EffectiveTimeout returns the configured timeout, or the default.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return DefaultTimeout * time.Second
}

// Validate checks the config for the fields its variant requires.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("extension name is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("extension %q: timeout must be non-negative", c.Name)
	}

	switch c.Type {
	case TypeBuiltin:
		return nil
	case TypeStdio:
		if c.Cmd == "" {
			return fmt.Errorf("extension %q: stdio extensions require cmd", c.Name)
		}
	case TypeSSE, TypeStreamableHTTP:
		if !strings.HasPrefix(c.URI, "http://") && !strings.HasPrefix(c.URI, "https://") {
			return fmt.Errorf("extension %q: %s extensions require an http(s) uri", c.Name, c.Type)
		}
	default:
		return fmt.Errorf("extension %q: unknown type %q", c.Name, c.Type)
	}
	return nil
}
