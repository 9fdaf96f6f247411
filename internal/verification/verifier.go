package verification

import (
	"context"
	"time"
)

// ChallengeRef identifies a pending challenge issued by a provider.
type ChallengeRef struct {
	ID        string
	ExpiresAt time.Time
}

// ChallengeVerifier is a two-call verification kind: the first call issues a
// challenge (an OTP is sent out of band), the second call resolves it.
type ChallengeVerifier interface {
	Kind() Kind
	Initiate(ctx context.Context, value string) (ChallengeRef, error)
	Resolve(ctx context.Context, ref ChallengeRef, value, response string) (Payload, error)
}

// OneShotVerifier is a single-call verification kind: the lookup resolves
// immediately without a user-facing challenge.
type OneShotVerifier interface {
	Kind() Kind
	Verify(ctx context.Context, value string) (Payload, error)
}

// StatusStore is where per-session verification statuses live, keyed by kind.
// The workflow state implements it.
type StatusStore interface {
	// LiveValue returns the current field value for the entity kind.
	LiveValue(kind Kind) string
	Status(kind Kind) Status
	SetStatus(kind Kind, status Status)
}
