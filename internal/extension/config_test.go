package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"developer", "developer"},
		{"My Extension", "myextension"},
		{"  Spaced\tOut  ", "spacedout"},
		{"CamelCase", "camelcase"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Config{Name: tc.name}.Key())
	}
}

func TestConfigEffectiveTimeout(t *testing.T) {
	assert.Equal(t, 300*time.Second, Config{}.EffectiveTimeout())
	assert.Equal(t, 45*time.Second, Config{Timeout: 45}.EffectiveTimeout())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		desc    string
		cfg     Config
		wantErr string
	}{
		{"builtin ok", Config{Type: TypeBuiltin, Name: "developer"}, ""},
		{"stdio ok", Config{Type: TypeStdio, Name: "fs", Cmd: "npx"}, ""},
		{"sse ok", Config{Type: TypeSSE, Name: "remote", URI: "https://example.com/sse"}, ""},
		{"streamable ok", Config{Type: TypeStreamableHTTP, Name: "remote", URI: "http://localhost:8080/mcp"}, ""},
		{"missing name", Config{Type: TypeBuiltin}, "name is required"},
		{"blank name", Config{Type: TypeBuiltin, Name: "   "}, "name is required"},
		{"stdio without cmd", Config{Type: TypeStdio, Name: "fs"}, "require cmd"},
		{"sse without uri", Config{Type: TypeSSE, Name: "remote"}, "http(s) uri"},
		{"sse bad scheme", Config{Type: TypeSSE, Name: "remote", URI: "ftp://example.com"}, "http(s) uri"},
		{"negative timeout", Config{Type: TypeBuiltin, Name: "x", Timeout: -1}, "non-negative"},
		{"unknown type", Config{Type: "socket", Name: "x"}, "unknown type"},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
