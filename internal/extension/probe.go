package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/okapian/goosectl/internal/version"
)

// ErrBuiltinProbe is returned when probing a builtin extension: builtins
// run inside the agent process and can only be inspected through the
// session tool listing.
var ErrBuiltinProbe = errors.New("builtin extensions run inside the agent; list session tools instead")

// ProbeResult describes a successfully contacted extension server.
type ProbeResult struct {
	ServerName    string
	ServerVersion string
	Tools         []string
}

// Probe connects directly to the extension's MCP server over the
// transport its config describes, initializes a session, and lists the
// tools it advertises. The config's timeout bounds the whole exchange.
func Probe(ctx context.Context, cfg Config) (*ProbeResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.EffectiveTimeout())
	defer cancel()

	mcpClient := client.NewClient(t)
	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting %s transport for %q: %w", cfg.Type, cfg.Name, err)
	}
	defer mcpClient.Close()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "goosectl",
		Version: version.Version,
	}

	serverInfo, err := mcpClient.Initialize(ctx, initRequest)
	if err != nil {
		return nil, fmt.Errorf("initializing extension %q: %w", cfg.Name, err)
	}

	result := &ProbeResult{
		ServerName:    serverInfo.ServerInfo.Name,
		ServerVersion: serverInfo.ServerInfo.Version,
	}

	if serverInfo.Capabilities.Tools == nil {
		return result, nil
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools for %q: %w", cfg.Name, err)
	}
	for _, tool := range toolsResult.Tools {
		result.Tools = append(result.Tools, tool.Name)
	}
	return result, nil
}

func newTransport(cfg Config) (transport.Interface, error) {
	switch cfg.Type {
	case TypeBuiltin:
		return nil, ErrBuiltinProbe
	case TypeStdio:
		var envSlice []string
		for key, value := range cfg.Envs {
			envSlice = append(envSlice, fmt.Sprintf("%s=%s", key, value))
		}
		return transport.NewStdio(cfg.Cmd, envSlice, cfg.Args...), nil
	case TypeSSE:
		var options []transport.ClientOption
		if len(cfg.Headers) > 0 {
			options = append(options, transport.WithHeaders(cfg.Headers))
		}
		return transport.NewSSE(cfg.URI, options...)
	case TypeStreamableHTTP:
		var options []transport.StreamableHTTPCOption
		if len(cfg.Headers) > 0 {
			options = append(options, transport.WithHTTPHeaders(cfg.Headers))
		}
		return transport.NewStreamableHTTP(cfg.URI, options...)
	default:
		return nil, fmt.Errorf("unsupported extension type %q", cfg.Type)
	}
}
