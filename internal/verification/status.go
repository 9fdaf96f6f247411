package verification

import "time"

// State is the lifecycle state of a verification attempt.
type State string

const (
	StateUnverified       State = "UNVERIFIED"
	StateChallengePending State = "CHALLENGE_PENDING"
	StateVerified         State = "VERIFIED"
	StateFailed           State = "FAILED"
)

// Status is the verification status of one entity value. It is keyed by the
// value it was computed for: a status for "+919876543210" says nothing about
// "+919876543211". Always read it through ForValue with the live field value.
type Status struct {
	State State `json:"state"`
	// Value is the entity value this status was computed for.
	Value       string    `json:"value,omitempty"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Payload     Payload   `json:"payload,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

func Unverified() Status {
	return Status{State: StateUnverified}
}

func ChallengePending(value, challengeID string, expiresAt time.Time) Status {
	return Status{State: StateChallengePending, Value: value, ChallengeID: challengeID, ExpiresAt: expiresAt}
}

func Verified(value string, payload Payload) Status {
	return Status{State: StateVerified, Value: value, Payload: payload}
}

func Failed(value, reason string) Status {
	return Status{State: StateFailed, Value: value, Reason: reason}
}

// ForValue resolves the status against the live field value. A status
// computed for a different value is reported as unverified, which is what
// keeps a verified flag from surviving an edit of the underlying field.
func (s Status) ForValue(liveValue string) Status {
	// The zero value has no state at all; it reads as unverified.
	if s.State == "" || s.State == StateUnverified {
		return Unverified()
	}
	if s.Value != liveValue {
		return Unverified()
	}
	return s
}

func (s Status) IsVerified() bool {
	return s.State == StateVerified
}

func (s Status) IsChallengePending() bool {
	return s.State == StateChallengePending
}
