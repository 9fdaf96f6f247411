package phoneotp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// challengeTTL is how long a sent OTP stays resolvable.
const challengeTTL = 5 * time.Minute

// Verifier adapts the phone OTP provider to the challenge-response
// interface. The provider keys the pending OTP by the phone number itself,
// so the challenge ID is only a local handle.
type Verifier struct {
	Client ClientInterface

	Now func() time.Time
}

func NewVerifier(client ClientInterface) *Verifier {
	return &Verifier{Client: client, Now: time.Now}
}

func (v *Verifier) Kind() verification.Kind {
	return verification.KindPhone
}

func (v *Verifier) Initiate(ctx context.Context, value string) (verification.ChallengeRef, error) {
	if err := utils.ValidatePhoneNumber(value); err != nil {
		return verification.ChallengeRef{}, verification.NewInvalidInputError("phone_number", err.Error())
	}

	if err := v.Client.SendOTP(ctx, value); err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return verification.ChallengeRef{}, verification.NewRejectionError(providerErr.Message)
		}
		return verification.ChallengeRef{}, err
	}

	return verification.ChallengeRef{
		ID:        uuid.NewString(),
		ExpiresAt: v.Now().Add(challengeTTL),
	}, nil
}

func (v *Verifier) Resolve(ctx context.Context, _ verification.ChallengeRef, value, response string) (verification.Payload, error) {
	if err := utils.ValidateOTP(response); err != nil {
		return nil, verification.NewInvalidInputError("otp", err.Error())
	}

	if err := v.Client.VerifyOTP(ctx, value, response); err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return nil, verification.NewRejectionError(providerErr.Message)
		}
		return nil, err
	}

	return verification.PhonePayload{PhoneNumber: value}, nil
}

var _ verification.ChallengeVerifier = (*Verifier)(nil)
