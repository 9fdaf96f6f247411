package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
)

// Coordinator drives challenge-response and one-shot verifications for one
// intake session. It serializes attempts per kind, memoizes verified values,
// guards against slow provider responses landing on an edited field, and owns
// the phone OTP resend cooldown.
type Coordinator struct {
	mu        sync.Mutex
	challenge map[Kind]ChallengeVerifier
	oneShot   map[Kind]OneShotVerifier
	inFlight  map[Kind]bool
	memo      *Cache
	// memoized tracks the entries this session wrote into the shared memo
	// cache, so Reset can evict them.
	memoized map[memoKey]struct{}
	cooldown *Cooldown

	Now func() time.Time
}

type memoKey struct {
	kind  Kind
	value string
}

func NewCoordinator(memo *Cache) *Coordinator {
	return &Coordinator{
		challenge: make(map[Kind]ChallengeVerifier),
		oneShot:   make(map[Kind]OneShotVerifier),
		inFlight:  make(map[Kind]bool),
		memo:      memo,
		memoized:  make(map[memoKey]struct{}),
		cooldown:  NewCooldown(DefaultResendCooldown),
		Now:       time.Now,
	}
}

func (c *Coordinator) RegisterChallengeVerifier(verifier ChallengeVerifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.challenge[verifier.Kind()] = verifier
}

func (c *Coordinator) RegisterOneShotVerifier(verifier OneShotVerifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oneShot[verifier.Kind()] = verifier
}

// ResendCooldown exposes the phone OTP resend window so the session surface
// can report the remaining time.
func (c *Coordinator) ResendCooldown() *Cooldown {
	return c.cooldown
}

// Initiate starts a verification for the live value of the given kind.
//
// A value already verified is a no-op returning the cached status. A value
// the memo cache knows is promoted to verified without a provider call. A
// second initiate while one is in flight for the same kind is rejected; a
// phone OTP re-initiate while the resend cooldown is open is rejected.
func (c *Coordinator) Initiate(ctx context.Context, store StatusStore, kind Kind) (Status, error) {
	c.mu.Lock()
	value := store.LiveValue(kind)
	current := store.Status(kind).ForValue(value)

	if current.IsVerified() {
		c.mu.Unlock()
		return current, nil
	}

	if payload, found := c.memo.Get(kind, value); found {
		status := Verified(value, payload)
		store.SetStatus(kind, status)
		c.mu.Unlock()
		return status, nil
	}

	if c.inFlight[kind] {
		c.mu.Unlock()
		return current, ErrVerificationInFlight
	}

	// The resend window gates every phone re-initiate, not only the pending
	// ones: a failed resolve must not reopen the door to a second OTP early.
	if kind == KindPhone && !c.cooldown.Ready() {
		c.mu.Unlock()
		return current, ErrResendCooldown
	}

	challengeVerifier, isChallenge := c.challenge[kind]
	oneShotVerifier, isOneShot := c.oneShot[kind]
	if !isChallenge && !isOneShot {
		c.mu.Unlock()
		return current, fmt.Errorf("initiating %s verification: %w", kind, ErrUnsupportedKind)
	}

	c.inFlight[kind] = true
	c.mu.Unlock()

	log.WithContext(ctx).Infof("initiating %s verification for %s", kind, utils.TruncateString(value, 3))

	var (
		ref     ChallengeRef
		payload Payload
		callErr error
	)
	if isChallenge {
		ref, callErr = challengeVerifier.Initiate(ctx, value)
	} else {
		payload, callErr = oneShotVerifier.Verify(ctx, value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[kind] = false

	// A format precondition failure happens before any network call and must
	// not disturb the stored status.
	var invalidInput *InvalidInputError
	if errors.As(callErr, &invalidInput) {
		return store.Status(kind).ForValue(store.LiveValue(kind)), callErr
	}

	// The field was edited while the provider call was in flight: the result
	// no longer describes the live value, so it is discarded.
	if liveValue := store.LiveValue(kind); liveValue != value {
		log.WithContext(ctx).Infof("discarding stale %s verification result for %s", kind, utils.TruncateString(value, 3))
		return store.Status(kind).ForValue(liveValue), nil
	}

	if callErr != nil {
		status := Failed(value, rejectionReason(callErr))
		store.SetStatus(kind, status)
		return status, callErr
	}

	var status Status
	if isChallenge {
		status = ChallengePending(value, ref.ID, ref.ExpiresAt)
		if kind == KindPhone {
			c.cooldown.Start(nil)
		}
	} else {
		status = Verified(value, payload)
		c.memo.Set(kind, value, payload)
		c.memoized[memoKey{kind: kind, value: value}] = struct{}{}
	}
	store.SetStatus(kind, status)

	return status, nil
}

// Resolve submits the challenge response (the OTP the user typed) for a
// pending challenge. A rejected response keeps the challenge open so the
// user can correct and resubmit without a fresh initiate.
func (c *Coordinator) Resolve(ctx context.Context, store StatusStore, kind Kind, response string) (Status, error) {
	c.mu.Lock()
	value := store.LiveValue(kind)
	current := store.Status(kind).ForValue(value)

	if current.IsVerified() {
		c.mu.Unlock()
		return current, nil
	}

	if current.ChallengeID == "" {
		c.mu.Unlock()
		return current, ErrNoPendingChallenge
	}

	if !current.ExpiresAt.IsZero() && c.Now().After(current.ExpiresAt) {
		status := Failed(value, "the challenge has expired, request a new code")
		store.SetStatus(kind, status)
		c.mu.Unlock()
		return status, ErrChallengeExpired
	}

	verifier, ok := c.challenge[kind]
	if !ok {
		c.mu.Unlock()
		return current, fmt.Errorf("resolving %s verification: %w", kind, ErrUnsupportedKind)
	}

	if c.inFlight[kind] {
		c.mu.Unlock()
		return current, ErrVerificationInFlight
	}
	c.inFlight[kind] = true
	ref := ChallengeRef{ID: current.ChallengeID, ExpiresAt: current.ExpiresAt}
	c.mu.Unlock()

	payload, callErr := verifier.Resolve(ctx, ref, value, response)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[kind] = false

	var invalidInput *InvalidInputError
	if errors.As(callErr, &invalidInput) {
		return store.Status(kind).ForValue(store.LiveValue(kind)), callErr
	}

	if liveValue := store.LiveValue(kind); liveValue != value {
		log.WithContext(ctx).Infof("discarding stale %s challenge result for %s", kind, utils.TruncateString(value, 3))
		return store.Status(kind).ForValue(liveValue), nil
	}

	if callErr != nil {
		status := Status{
			State:       StateFailed,
			Value:       value,
			ChallengeID: current.ChallengeID,
			ExpiresAt:   current.ExpiresAt,
			Reason:      rejectionReason(callErr),
		}
		store.SetStatus(kind, status)
		return status, callErr
	}

	status := Verified(value, payload)
	store.SetStatus(kind, status)
	c.memo.Set(kind, value, payload)
	c.memoized[memoKey{kind: kind, value: value}] = struct{}{}
	if kind == KindPhone {
		c.cooldown.Cancel()
	}

	return status, nil
}

// Reset tears down session-scoped verification machinery. The entries this
// session memoized are evicted from the shared cache: the next session must
// re-prove possession even for the same values.
func (c *Coordinator) Reset() {
	c.cooldown.Cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.memoized {
		c.memo.Drop(key.kind, key.value)
	}
	c.memoized = make(map[memoKey]struct{})
	c.inFlight = make(map[Kind]bool)
}
