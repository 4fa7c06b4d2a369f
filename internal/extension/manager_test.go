package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapian/goosectl/internal/logging"
)

// fakeAPI records agent calls and can be scripted to fail.
type fakeAPI struct {
	addCalls    []string
	removeCalls []string
	addErr      func(name string, call int) error
	removeErr   func(name string) error
}

func (f *fakeAPI) AddExtension(_ context.Context, _ string, cfg Config) error {
	f.addCalls = append(f.addCalls, cfg.Name)
	if f.addErr != nil {
		return f.addErr(cfg.Name, len(f.addCalls))
	}
	return nil
}

func (f *fakeAPI) RemoveExtension(_ context.Context, _, name string) error {
	f.removeCalls = append(f.removeCalls, name)
	if f.removeErr != nil {
		return f.removeErr(name)
	}
	return nil
}

// fakeRegistry is an in-memory Registry with injectable failures.
type fakeRegistry struct {
	entries    map[string]Entry
	setErr     error
	enabledErr error
	removeErr  error
}

func newFakeRegistry(entries ...Entry) *fakeRegistry {
	r := &fakeRegistry{entries: map[string]Entry{}}
	for _, e := range entries {
		r.entries[e.Config.Key()] = e
	}
	return r
}

func (r *fakeRegistry) Get(key string) (Entry, bool, error) {
	e, ok := r.entries[key]
	return e, ok, nil
}

func (r *fakeRegistry) Set(entry Entry) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.entries[entry.Config.Key()] = entry
	return nil
}

func (r *fakeRegistry) Remove(key string) error {
	if r.removeErr != nil {
		return r.removeErr
	}
	delete(r.entries, key)
	return nil
}

func (r *fakeRegistry) SetEnabled(key string, enabled bool) error {
	if r.enabledErr != nil {
		return r.enabledErr
	}
	if e, ok := r.entries[key]; ok {
		e.Enabled = enabled
		r.entries[key] = e
	}
	return nil
}

func (r *fakeRegistry) All() ([]Entry, error) {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

// httpError mimics the agent client's API errors in tests.
type httpError struct {
	status int
}

func (e *httpError) Error() string   { return fmt.Sprintf("agent returned %d", e.status) }
func (e *httpError) StatusCode() int { return e.status }
func (e *httpError) NotReady() bool  { return e.status == 428 }

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func testManager(api *fakeAPI, reg *fakeRegistry) *Manager {
	return NewManager(api, reg, testLogger(), WithRetryInterval(time.Microsecond))
}

func stdioCfg(name string) Config {
	return Config{Type: TypeStdio, Name: name, Cmd: "uvx", Args: []string{name}}
}

func TestActivate(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry()
	m := testManager(api, reg)

	require.NoError(t, m.Activate(context.Background(), "s1", stdioCfg("fetch")))

	assert.Equal(t, []string{"fetch"}, api.addCalls)
	e, ok, _ := reg.Get("fetch")
	require.True(t, ok)
	assert.True(t, e.Enabled)
}

func TestActivateInvalidConfig(t *testing.T) {
	api := &fakeAPI{}
	m := testManager(api, newFakeRegistry())

	err := m.Activate(context.Background(), "s1", Config{Type: TypeStdio, Name: "broken"})
	require.Error(t, err)
	assert.Empty(t, api.addCalls, "invalid config must not reach the agent")
}

func TestActivateAgentFailurePersistsDisabled(t *testing.T) {
	api := &fakeAPI{addErr: func(string, int) error { return errors.New("boom") }}
	reg := newFakeRegistry()
	m := testManager(api, reg)

	err := m.Activate(context.Background(), "s1", stdioCfg("fetch"))
	require.Error(t, err)

	e, ok, _ := reg.Get("fetch")
	require.True(t, ok, "failed activation still records the entry")
	assert.False(t, e.Enabled)
}

func TestActivateStoreFailureRollsBackAgent(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry()
	reg.setErr = errors.New("disk full")
	m := testManager(api, reg)

	err := m.Activate(context.Background(), "s1", stdioCfg("fetch"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting")
	assert.Equal(t, []string{"fetch"}, api.removeCalls, "agent registration must be rolled back")
}

func TestDeactivate(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	m := testManager(api, reg)

	require.NoError(t, m.Deactivate(context.Background(), "s1", "fetch"))
	assert.Equal(t, []string{"fetch"}, api.removeCalls)
	enabled := reg.entries["fetch"].Enabled
	assert.False(t, enabled)
}

func TestDeactivateUnknown(t *testing.T) {
	m := testManager(&fakeAPI{}, newFakeRegistry())
	err := m.Deactivate(context.Background(), "s1", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extension")
}

func TestDeactivateStoreFailureRestoresAgent(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	reg.enabledErr = errors.New("disk full")
	m := testManager(api, reg)

	err := m.Deactivate(context.Background(), "s1", "fetch")
	require.Error(t, err)
	assert.Equal(t, []string{"fetch"}, api.removeCalls)
	assert.Equal(t, []string{"fetch"}, api.addCalls, "agent registration must be restored")
}

func TestUpdateToleratesMissingRegistration(t *testing.T) {
	api := &fakeAPI{removeErr: func(string) error { return &httpError{status: 404} }}
	reg := newFakeRegistry()
	m := testManager(api, reg)

	require.NoError(t, m.Update(context.Background(), "s1", stdioCfg("fetch")))
	assert.Equal(t, []string{"fetch"}, api.addCalls)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	m := testManager(api, reg)

	require.NoError(t, m.Delete(context.Background(), "s1", "fetch"))
	assert.Equal(t, []string{"fetch"}, api.removeCalls)
	_, ok, _ := reg.Get("fetch")
	assert.False(t, ok)
}

func TestDeleteDisabledSkipsAgent(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(Entry{Enabled: false, Config: stdioCfg("fetch")})
	m := testManager(api, reg)

	require.NoError(t, m.Delete(context.Background(), "s1", "fetch"))
	assert.Empty(t, api.removeCalls)
}

func TestDeleteStoreFailureRestoresAgent(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	reg.removeErr = errors.New("disk full")
	m := testManager(api, reg)

	err := m.Delete(context.Background(), "s1", "fetch")
	require.Error(t, err)
	assert.Equal(t, []string{"fetch"}, api.addCalls, "agent registration must be restored")
}

func TestRegisterStartup(t *testing.T) {
	api := &fakeAPI{}
	reg := newFakeRegistry(
		Entry{Enabled: true, Config: stdioCfg("alpha")},
		Entry{Enabled: false, Config: stdioCfg("skipped")},
	)
	m := testManager(api, reg)

	res, err := m.RegisterStartup(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, res.Registered)
	assert.Empty(t, res.Failures)
	assert.NotContains(t, api.addCalls, "skipped")
}

func TestRegisterStartupRetriesNotReady(t *testing.T) {
	api := &fakeAPI{addErr: func(_ string, call int) error {
		if call < 3 {
			return &httpError{status: 428}
		}
		return nil
	}}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	m := testManager(api, reg)

	res, err := m.RegisterStartup(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch"}, res.Registered)
	assert.Len(t, api.addCalls, 3)
	assert.True(t, reg.entries["fetch"].Enabled)
}

func TestRegisterStartupExhaustsBudget(t *testing.T) {
	api := &fakeAPI{addErr: func(string, int) error { return &httpError{status: 428} }}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	m := NewManager(api, reg, testLogger(),
		WithRetryInterval(time.Microsecond), WithMaxRetries(4))

	res, err := m.RegisterStartup(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, res.Registered)
	require.Len(t, res.Failures, 1, "each exhausted extension is reported once")
	assert.Equal(t, "fetch", res.Failures[0].Name)
	assert.Len(t, api.addCalls, 5, "initial attempt plus retry budget")
	assert.False(t, reg.entries["fetch"].Enabled, "exhausted extension is disabled")
}

func TestRegisterStartupPermanentErrorNoRetry(t *testing.T) {
	api := &fakeAPI{addErr: func(string, int) error { return &httpError{status: 500} }}
	reg := newFakeRegistry(Entry{Enabled: true, Config: stdioCfg("fetch")})
	m := testManager(api, reg)

	res, err := m.RegisterStartup(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Len(t, api.addCalls, 1, "non-428 errors are not retried")
}
