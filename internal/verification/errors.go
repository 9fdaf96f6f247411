package verification

import (
	"errors"
	"fmt"
)

var (
	// ErrVerificationInFlight is returned when a second initiate arrives for a
	// kind whose provider call has not resolved yet.
	ErrVerificationInFlight = errors.New("a verification for this kind is already in flight")
	// ErrNoPendingChallenge is returned when a challenge response arrives but
	// there is no matching pending challenge for the live field value.
	ErrNoPendingChallenge = errors.New("no pending challenge for the current value")
	// ErrChallengeExpired is returned when the pending challenge has expired.
	ErrChallengeExpired = errors.New("the pending challenge has expired")
	// ErrResendCooldown is returned when an OTP resend is attempted before the
	// cooldown window has elapsed.
	ErrResendCooldown = errors.New("resend is not available yet")
	// ErrUnsupportedKind is returned when no verifier is registered for a kind.
	ErrUnsupportedKind = errors.New("no verifier registered for this kind")
)

// InvalidInputError is a local format precondition failure. It is raised
// before any network call is made and is never retried automatically.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewInvalidInputError(field, message string) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: message}
}

// RejectionError is a provider-declared business failure: wrong OTP, account
// not found, identity mismatch. The user must re-attempt with corrected
// input; it is not a transient condition.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("verification rejected: %s", e.Reason)
}

func NewRejectionError(reason string) *RejectionError {
	return &RejectionError{Reason: reason}
}

// rejectionReason flattens provider and network failures into the reason
// string stored on a failed status. Both are surfaced the same way to the
// caller; only the wording differs.
func rejectionReason(err error) string {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return fmt.Sprintf("verification could not be completed: %v", err)
}
