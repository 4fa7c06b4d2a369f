package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okapian/goosectl/internal/logging"
)

// AgentAPI is the slice of the agent client the manager needs.
type AgentAPI interface {
	AddExtension(ctx context.Context, sessionID string, cfg Config) error
	RemoveExtension(ctx context.Context, sessionID, name string) error
}

// notReadyError is implemented by agent errors that mean the agent
// process has not finished initializing and the call may be retried.
type notReadyError interface {
	NotReady() bool
}

func isNotReady(err error) bool {
	var nr notReadyError
	return errors.As(err, &nr) && nr.NotReady()
}

// Registry is the persisted side of the extension registry. *Store is
// the production implementation.
type Registry interface {
	Get(key string) (Entry, bool, error)
	Set(entry Entry) error
	Remove(key string) error
	SetEnabled(key string, enabled bool) error
	All() ([]Entry, error)
}

// Manager coordinates the two stores an extension lives in: the running
// agent process and the persisted config registry. Every mutation is a
// two-step write with a compensating rollback of the first step when the
// second fails.
type Manager struct {
	api           AgentAPI
	store         Registry
	log           *logging.Logger
	maxRetries    int
	retryInterval time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxRetries sets the 428 retry budget for startup registration.
func WithMaxRetries(n int) ManagerOption {
	return func(m *Manager) { m.maxRetries = n }
}

// WithRetryInterval sets the initial backoff interval for startup
// registration retries.
func WithRetryInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.retryInterval = d }
}

// NewManager creates a Manager over the given agent API and store.
func NewManager(api AgentAPI, store Registry, log *logging.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		log:           log.Sub("extensions"),
		maxRetries:    5,
		retryInterval: time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Activate registers the extension with the running agent and persists it
// as enabled. If registration fails the entry is persisted disabled and
// the registration error is returned. If persistence fails after a
// successful registration, the registration is rolled back.
func (m *Manager) Activate(ctx context.Context, sessionID string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := m.api.AddExtension(ctx, sessionID, cfg); err != nil {
		if storeErr := m.store.Set(Entry{Enabled: false, Config: cfg}); storeErr != nil {
			m.log.Warn().Err(storeErr).Str("extension", cfg.Name).Msg("could not persist disabled entry")
		}
		return fmt.Errorf("registering extension %q with agent: %w", cfg.Name, err)
	}

	if err := m.store.Set(Entry{Enabled: true, Config: cfg}); err != nil {
		if rbErr := m.api.RemoveExtension(ctx, sessionID, cfg.Name); rbErr != nil {
			m.log.Warn().Err(rbErr).Str("extension", cfg.Name).Msg("rollback deregistration failed")
		}
		return fmt.Errorf("persisting extension %q: %w", cfg.Name, err)
	}

	m.log.Info().Str("extension", cfg.Name).Msg("extension activated")
	return nil
}

// Deactivate removes the extension from the running agent and persists it
// as disabled. If persistence fails the agent registration is restored.
func (m *Manager) Deactivate(ctx context.Context, sessionID, key string) error {
	entry, ok, err := m.store.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown extension %q", key)
	}

	if err := m.api.RemoveExtension(ctx, sessionID, entry.Config.Name); err != nil {
		return fmt.Errorf("deregistering extension %q from agent: %w", entry.Config.Name, err)
	}

	if err := m.store.SetEnabled(key, false); err != nil {
		if rbErr := m.api.AddExtension(ctx, sessionID, entry.Config); rbErr != nil {
			m.log.Warn().Err(rbErr).Str("extension", entry.Config.Name).Msg("rollback re-registration failed")
		}
		return fmt.Errorf("persisting disabled state for %q: %w", entry.Config.Name, err)
	}

	m.log.Info().Str("extension", entry.Config.Name).Msg("extension deactivated")
	return nil
}

// Update re-registers the extension with the agent under a new config and
// persists it. The old registration is removed first; a missing prior
// registration is tolerated.
func (m *Manager) Update(ctx context.Context, sessionID string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := m.api.RemoveExtension(ctx, sessionID, cfg.Name); err != nil && !isNotFound(err) {
		return fmt.Errorf("deregistering old config for %q: %w", cfg.Name, err)
	}

	return m.Activate(ctx, sessionID, cfg)
}

// Delete deactivates the extension on the agent (when enabled) and drops
// its entry from the registry. A failed drop after a successful agent
// removal restores the registration.
func (m *Manager) Delete(ctx context.Context, sessionID, key string) error {
	entry, ok, err := m.store.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown extension %q", key)
	}

	if entry.Enabled {
		if err := m.api.RemoveExtension(ctx, sessionID, entry.Config.Name); err != nil && !isNotFound(err) {
			return fmt.Errorf("deregistering extension %q from agent: %w", entry.Config.Name, err)
		}
	}

	if err := m.store.Remove(key); err != nil {
		if entry.Enabled {
			if rbErr := m.api.AddExtension(ctx, sessionID, entry.Config); rbErr != nil {
				m.log.Warn().Err(rbErr).Str("extension", entry.Config.Name).Msg("rollback re-registration failed")
			}
		}
		return fmt.Errorf("removing extension %q from registry: %w", entry.Config.Name, err)
	}

	m.log.Info().Str("extension", entry.Config.Name).Msg("extension deleted")
	return nil
}

// statusCoder is implemented by agent errors carrying an HTTP status.
type statusCoder interface {
	StatusCode() int
}

func isNotFound(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == 404
}

// StartupFailure records one extension that could not be registered
// during startup.
type StartupFailure struct {
	Name string
	Err  error
}

// StartupResult summarizes a startup registration pass.
type StartupResult struct {
	Registered []string
	Failures   []StartupFailure
}

// RegisterStartup registers every enabled extension with the agent. A 428
// response is retried with exponential backoff up to the retry budget;
// any other error fails immediately. Extensions that exhaust the budget
// are disabled in the registry and reported exactly once in Failures.
func (m *Manager) RegisterStartup(ctx context.Context, sessionID string) (StartupResult, error) {
	entries, err := m.store.All()
	if err != nil {
		return StartupResult{}, err
	}

	var result StartupResult
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}

		cfg := entry.Config
		attempt := 0
		op := func() error {
			attempt++
			err := m.api.AddExtension(ctx, sessionID, cfg)
			if err == nil {
				return nil
			}
			if isNotReady(err) {
				m.log.Debug().
					Str("extension", cfg.Name).
					Int("attempt", attempt).
					Msg("agent not ready, will retry")
				return err
			}
			return backoff.Permanent(err)
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = m.retryInterval
		err := backoff.Retry(op, backoff.WithContext(
			backoff.WithMaxRetries(bo, uint64(m.maxRetries)), ctx))

		if err != nil {
			if disableErr := m.store.SetEnabled(cfg.Key(), false); disableErr != nil {
				m.log.Warn().Err(disableErr).Str("extension", cfg.Name).Msg("could not disable failed extension")
			}
			m.log.Error().Err(err).Str("extension", cfg.Name).Msg("startup registration failed")
			result.Failures = append(result.Failures, StartupFailure{Name: cfg.Name, Err: err})
			continue
		}

		result.Registered = append(result.Registered, cfg.Name)
	}
	return result, nil
}
