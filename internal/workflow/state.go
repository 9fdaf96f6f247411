package workflow

import (
	"slices"
	"strings"
	"sync"

	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// State is the mutable side of one intake session: the current stage
// ordinal, the field values entered so far, and the verification status per
// entity kind. It lives for the duration of one session and is reset after a
// successful submission or an explicit cancel.
//
// All access goes through the accessors; a slow verification response and a
// field edit may touch the state from different goroutines.
type State struct {
	Flow *Flow

	mu       sync.RWMutex
	ordinal  int
	fields   map[string]string
	statuses map[verification.Kind]verification.Status
}

func NewState(flow *Flow) *State {
	return &State{
		Flow:     flow,
		ordinal:  1,
		fields:   make(map[string]string),
		statuses: make(map[verification.Kind]verification.Status),
	}
}

func (s *State) Ordinal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordinal
}

func (s *State) setOrdinal(ordinal int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordinal = ordinal
}

func (s *State) CurrentStage() Stage {
	stage, err := s.Flow.StageAt(s.Ordinal())
	if err != nil {
		// The ordinal is kept within range by Advance/Retreat; reaching this
		// means the invariant was broken elsewhere.
		panic(err)
	}
	return stage
}

func (s *State) Field(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields[name]
}

// Fields returns a snapshot of the current field values.
func (s *State) Fields() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, len(s.fields))
	for name, value := range s.fields {
		snapshot[name] = value
	}
	return snapshot
}

// SetField writes a field value. If the field drives a reset rule, the
// dependent branch fields are cleared. If the field holds a verifiable
// entity value and the value actually changed, the cached verification
// status is explicitly dropped back to unverified.
func (s *State) SetField(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.fields[name]
	if existed && previous == value {
		return
	}
	s.fields[name] = value

	for _, rule := range s.Flow.ResetRules {
		if rule.Field != name {
			continue
		}
		for _, cleared := range rule.Clears {
			delete(s.fields, cleared)
		}
	}

	for kind, entityFields := range s.Flow.EntityFields {
		if slices.Contains(entityFields, name) {
			s.statuses[kind] = verification.Unverified()
		}
	}
}

// LiveValue implements verification.StatusStore. Multi-field entities (bank
// account number + IFSC) join their components with "|".
func (s *State) LiveValue(kind verification.Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveValueLocked(kind)
}

func (s *State) liveValueLocked(kind verification.Kind) string {
	entityFields, ok := s.Flow.EntityFields[kind]
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(entityFields))
	for _, field := range entityFields {
		parts = append(parts, s.fields[field])
	}
	return strings.Join(parts, "|")
}

// Status implements verification.StatusStore. The stored status is always
// resolved against the live field value, so a status computed for an old
// value can never read as verified.
func (s *State) Status(kind verification.Kind) verification.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[kind].ForValue(s.liveValueLocked(kind))
}

// SetStatus implements verification.StatusStore.
func (s *State) SetStatus(kind verification.Kind, status verification.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[kind] = status
}

// Statuses returns the live status per kind used by the flow.
func (s *State) Statuses() map[verification.Kind]verification.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[verification.Kind]verification.Status, len(s.Flow.EntityFields))
	for kind := range s.Flow.EntityFields {
		out[kind] = s.statuses[kind].ForValue(s.liveValueLocked(kind))
	}
	return out
}

// Reset discards everything and returns the session to its initial shape.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordinal = 1
	s.fields = make(map[string]string)
	s.statuses = make(map[verification.Kind]verification.Status)
}

var _ verification.StatusStore = (*State)(nil)
