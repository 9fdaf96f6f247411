package nationalid

import (
	"context"
	"errors"
	"time"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

const challengeTTL = 10 * time.Minute

// Verifier adapts the national ID provider to the challenge-response
// interface.
type Verifier struct {
	Client ClientInterface

	Now func() time.Time
}

func NewVerifier(client ClientInterface) *Verifier {
	return &Verifier{Client: client, Now: time.Now}
}

func (v *Verifier) Kind() verification.Kind {
	return verification.KindNationalID
}

func (v *Verifier) Initiate(ctx context.Context, value string) (verification.ChallengeRef, error) {
	if err := utils.ValidateNationalID(value); err != nil {
		return verification.ChallengeRef{}, verification.NewInvalidInputError("national_id", err.Error())
	}

	requestID, err := v.Client.Challenge(ctx, value)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return verification.ChallengeRef{}, verification.NewRejectionError(providerErr.Message)
		}
		return verification.ChallengeRef{}, err
	}

	return verification.ChallengeRef{
		ID:        requestID,
		ExpiresAt: v.Now().Add(challengeTTL),
	}, nil
}

func (v *Verifier) Resolve(ctx context.Context, ref verification.ChallengeRef, _, response string) (verification.Payload, error) {
	if err := utils.ValidateOTP(response); err != nil {
		return nil, verification.NewInvalidInputError("otp", err.Error())
	}

	data, err := v.Client.Verify(ctx, ref.ID, response)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return nil, verification.NewRejectionError(providerErr.Message)
		}
		return nil, err
	}

	return verification.NationalIDPayload{
		FullName:    data.FullName,
		DateOfBirth: data.DateOfBirth,
		Gender:      data.Gender,
		Address:     data.Address,
	}, nil
}

var _ verification.ChallengeVerifier = (*Verifier)(nil)
