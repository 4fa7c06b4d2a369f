// Package confirm tracks tool-confirmation decisions for the lifetime of
// the process. The store is injected where needed rather than held as a
// package global so each command run owns its own state.
package confirm

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Decision is the outcome of a tool confirmation prompt.
type Decision string

const (
	AllowOnce   Decision = "allow-once"
	AlwaysAllow Decision = "always-allow"
	Deny        Decision = "deny"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case AllowOnce, AlwaysAllow, Deny:
		return true
	}
	return false
}

// Action returns the wire form of the decision used by the daemon's
// confirm endpoint.
func (d Decision) Action() string {
	switch d {
	case AllowOnce:
		return "allow_once"
	case AlwaysAllow:
		return "always_allow"
	case Deny:
		return "deny"
	}
	return string(d)
}

// ParseDecision reads a decision in either the CLI or the wire form.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case string(AllowOnce), "allow_once", "once":
		return AllowOnce, nil
	case string(AlwaysAllow), "always_allow", "always":
		return AlwaysAllow, nil
	case string(Deny):
		return Deny, nil
	}
	return "", fmt.Errorf("unknown decision %q (want allow-once, always-allow, or deny)", s)
}

// Confirmation is one recorded tool-confirmation.
type Confirmation struct {
	ID        string
	ToolName  string
	Prompt    string
	Decision  Decision
	DecidedAt time.Time
}

// Store holds confirmations keyed by id. Once a decision is recorded it
// stays stable for the rest of the process.
type Store struct {
	mu        sync.RWMutex
	decisions map[string]Confirmation
}

// NewStore creates an empty confirmation store.
func NewStore() *Store {
	return &Store{decisions: map[string]Confirmation{}}
}

// Record stores the decision for a confirmation id. Re-recording an
// already-decided id is rejected so a decision never flips mid-session.
func (s *Store) Record(id, toolName, prompt string, d Decision) error {
	if !d.Valid() {
		return fmt.Errorf("unknown decision %q", d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.decisions[id]; ok && existing.Decision != d {
		return fmt.Errorf("confirmation %s already decided as %s", id, existing.Decision)
	}
	s.decisions[id] = Confirmation{
		ID:        id,
		ToolName:  toolName,
		Prompt:    prompt,
		Decision:  d,
		DecidedAt: time.Now(),
	}
	return nil
}

// Get returns the recorded confirmation for an id.
func (s *Store) Get(id string) (Confirmation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.decisions[id]
	return c, ok
}

// AllowedForTool reports whether an always-allow decision exists for the
// tool, letting later confirmations for the same tool skip the prompt.
func (s *Store) AllowedForTool(toolName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.decisions {
		if c.ToolName == toolName && c.Decision == AlwaysAllow {
			return true
		}
	}
	return false
}

// All returns every recorded confirmation, ordered by decision time.
func (s *Store) All() []Confirmation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Confirmation, 0, len(s.decisions))
	for _, c := range s.decisions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DecidedAt.Before(out[j].DecidedAt)
	})
	return out
}
