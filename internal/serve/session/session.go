// Package session holds the in-memory intake sessions: one workflow state,
// one verification coordinator, and the attached document contents per
// session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradenest/intake-workflow-backend/internal/uploads"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
	"github.com/tradenest/intake-workflow-backend/internal/workflow"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one live intake session.
type Session struct {
	ID          string
	Controller  *workflow.Controller
	Coordinator *verification.Coordinator
	CreatedAt   time.Time

	mu        sync.Mutex
	documents map[string]uploads.Slot
}

// AttachDocument stores the raw content for a logical document slot and
// marks the matching field so the validation graph sees it as populated.
func (s *Session) AttachDocument(slot uploads.Slot) {
	s.mu.Lock()
	s.documents[slot.Name] = slot
	s.mu.Unlock()

	s.Controller.State().SetField(slot.Name, "attached")
}

// DocumentSlots returns the populated slots ordered against the flow's
// fixed document field list. Slots never attached are omitted; the sparse
// list never shifts the order of the rest.
func (s *Session) DocumentSlots() []uploads.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow := s.Controller.State().Flow
	slots := make([]uploads.Slot, 0, len(s.documents))
	for _, name := range flow.DocumentFields {
		if slot, ok := s.documents[name]; ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Reset clears the session back to its initial shape, cancelling the
// session-scoped verification machinery.
func (s *Session) Reset() {
	s.Coordinator.Reset()
	s.Controller.Reset()

	s.mu.Lock()
	s.documents = make(map[string]uploads.Slot)
	s.mu.Unlock()
}

// Store is the in-memory session registry. Every session it creates gets its
// own coordinator wired with the shared verifier set and memo cache.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	memo      *verification.Cache
	challenge []verification.ChallengeVerifier
	oneShot   []verification.OneShotVerifier
}

func NewStore(memo *verification.Cache, challenge []verification.ChallengeVerifier, oneShot []verification.OneShotVerifier) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		memo:      memo,
		challenge: challenge,
		oneShot:   oneShot,
	}
}

// Create builds a new session for the named flow.
func (st *Store) Create(flowName string) (*Session, error) {
	flow, err := workflow.GetFlow(flowName)
	if err != nil {
		return nil, err
	}

	coordinator := verification.NewCoordinator(st.memo)
	for _, v := range st.challenge {
		coordinator.RegisterChallengeVerifier(v)
	}
	for _, v := range st.oneShot {
		coordinator.RegisterOneShotVerifier(v)
	}

	s := &Session{
		ID:          uuid.NewString(),
		Controller:  workflow.NewController(flow),
		Coordinator: coordinator,
		CreatedAt:   time.Now(),
		documents:   make(map[string]uploads.Slot),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	return s, nil
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete tears the session down, cancelling its cooldown ticker so nothing
// keeps mutating a discarded session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Coordinator.Reset()
	return nil
}
