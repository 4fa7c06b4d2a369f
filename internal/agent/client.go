// Package agent is the HTTP client for the local agent daemon. Every
// request carries the locally-issued secret key in the X-Secret-Key
// header; the daemon rejects anything else with 401.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/okapian/goosectl/internal/extension"
	"github.com/okapian/goosectl/internal/logging"
	"github.com/okapian/goosectl/internal/recipe"
)

const defaultTimeout = 30 * time.Second

// Client talks to the agent daemon's HTTP API.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	log     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the daemon at baseURL authenticating with the
// given secret key.
func New(baseURL, secret string, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log.Sub("agent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the daemon base URL this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues a request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Secret-Key", c.secret)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("agent request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// Status reports daemon liveness and version.
type Status struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Status checks the daemon's health endpoint.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &s)
	return s, err
}

// Config operations

type upsertConfigRequest struct {
	Key      string `json:"key"`
	Value    any    `json:"value"`
	IsSecret bool   `json:"is_secret"`
}

// UpsertConfig writes a config value through the daemon so both sides
// observe it.
func (c *Client) UpsertConfig(ctx context.Context, key string, value any, isSecret bool) error {
	return c.do(ctx, http.MethodPost, "/config/upsert", upsertConfigRequest{
		Key:      key,
		Value:    value,
		IsSecret: isSecret,
	}, nil)
}

type configKeyRequest struct {
	Key string `json:"key"`
}

// RemoveConfig deletes a config value through the daemon.
func (c *Client) RemoveConfig(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPost, "/config/remove", configKeyRequest{Key: key}, nil)
}

// ReadConfig reads a single (non-secret) config value through the daemon.
func (c *Client) ReadConfig(ctx context.Context, key string) (any, error) {
	var out struct {
		Value any `json:"value"`
	}
	err := c.do(ctx, http.MethodPost, "/config/read", configKeyRequest{Key: key}, &out)
	return out.Value, err
}

// Extension operations

type addExtensionRequest struct {
	SessionID string           `json:"session_id,omitempty"`
	Config    extension.Config `json:"config"`
}

// AddExtension registers an extension with the running agent. The daemon
// answers 428 while its agent process is still initializing.
func (c *Client) AddExtension(ctx context.Context, sessionID string, cfg extension.Config) error {
	return c.do(ctx, http.MethodPost, "/extensions/add", addExtensionRequest{
		SessionID: sessionID,
		Config:    cfg,
	}, nil)
}

type removeExtensionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
}

// RemoveExtension deregisters an extension from the running agent.
func (c *Client) RemoveExtension(ctx context.Context, sessionID, name string) error {
	return c.do(ctx, http.MethodPost, "/extensions/remove", removeExtensionRequest{
		SessionID: sessionID,
		Name:      name,
	}, nil)
}

// Session operations

// Session describes an agent session.
type Session struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	WorkingDir  string `json:"working_dir,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// ListSessions returns the daemon's known sessions.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out struct {
		Sessions []Session `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, "/sessions", nil, &out)
	return out.Sessions, err
}

type startAgentRequest struct {
	WorkingDir string         `json:"working_dir"`
	Recipe     *recipe.Recipe `json:"recipe,omitempty"`
}

// StartAgent creates a new session, optionally pre-configured from a recipe.
func (c *Client) StartAgent(ctx context.Context, workingDir string, r *recipe.Recipe) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/agent/start", startAgentRequest{
		WorkingDir: workingDir,
		Recipe:     r,
	}, &s)
	return s, err
}

// ToolInfo describes a tool exposed to the agent by an extension.
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
}

// ListTools returns the tools visible in a session, optionally filtered
// by extension name.
func (c *Client) ListTools(ctx context.Context, sessionID, extensionName string) ([]ToolInfo, error) {
	q := url.Values{"session_id": {sessionID}}
	if extensionName != "" {
		q.Set("extension_name", extensionName)
	}
	var out []ToolInfo
	err := c.do(ctx, http.MethodGet, "/agent/tools?"+q.Encode(), nil, &out)
	return out, err
}

// ToolConfirmation is a pending permission request for a tool call.
type ToolConfirmation struct {
	ID       string `json:"id"`
	ToolName string `json:"toolName"`
	Prompt   string `json:"prompt,omitempty"`
}

// PendingConfirmations returns the tool confirmations awaiting a
// decision in a session.
func (c *Client) PendingConfirmations(ctx context.Context, sessionID string) ([]ToolConfirmation, error) {
	q := url.Values{"session_id": {sessionID}}
	var out struct {
		Confirmations []ToolConfirmation `json:"confirmations"`
	}
	err := c.do(ctx, http.MethodGet, "/confirmations?"+q.Encode(), nil, &out)
	return out.Confirmations, err
}

type confirmRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// SubmitConfirmation answers a pending tool confirmation.
func (c *Client) SubmitConfirmation(ctx context.Context, id, action string) error {
	return c.do(ctx, http.MethodPost, "/confirm", confirmRequest{ID: id, Action: action}, nil)
}

// Recipe operations

// RecipeManifest is one entry of the daemon's recipe library listing.
type RecipeManifest struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	IsGlobal     bool          `json:"isGlobal"`
	Recipe       recipe.Recipe `json:"recipe"`
	LastModified string        `json:"lastModified"`
}

// ListRecipes returns the daemon's recipe library.
func (c *Client) ListRecipes(ctx context.Context) ([]RecipeManifest, error) {
	var out struct {
		Manifests []RecipeManifest `json:"recipe_manifest_responses"`
	}
	err := c.do(ctx, http.MethodGet, "/recipes/list", nil, &out)
	return out.Manifests, err
}

type deleteRecipeRequest struct {
	ID string `json:"id"`
}

// DeleteRecipe removes a recipe from the daemon's library by manifest id.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/recipes/delete", deleteRecipeRequest{ID: id}, nil)
}

type encodeRecipeRequest struct {
	Recipe recipe.Recipe `json:"recipe"`
}

// EncodeRecipe asks the daemon to encode a recipe as a shareable deeplink.
func (c *Client) EncodeRecipe(ctx context.Context, r recipe.Recipe) (string, error) {
	var out struct {
		Deeplink string `json:"deeplink"`
	}
	err := c.do(ctx, http.MethodPost, "/recipes/encode", encodeRecipeRequest{Recipe: r}, &out)
	return out.Deeplink, err
}

type decodeRecipeRequest struct {
	Deeplink string `json:"deeplink"`
}

// DecodeRecipe asks the daemon to decode a deeplink back into a recipe.
func (c *Client) DecodeRecipe(ctx context.Context, deeplink string) (recipe.Recipe, error) {
	var out struct {
		Recipe recipe.Recipe `json:"recipe"`
	}
	err := c.do(ctx, http.MethodPost, "/recipes/decode", decodeRecipeRequest{Deeplink: deeplink}, &out)
	return out.Recipe, err
}
