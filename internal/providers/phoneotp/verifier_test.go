package phoneotp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

type clientMock struct {
	mock.Mock
}

func (m *clientMock) SendOTP(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func (m *clientMock) VerifyOTP(ctx context.Context, identifier, otp string) error {
	args := m.Called(ctx, identifier, otp)
	return args.Error(0)
}

var _ ClientInterface = (*clientMock)(nil)

func Test_Verifier_Initiate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("invalid phone number fails before any provider call", func(t *testing.T) {
		cMock := &clientMock{}
		verifier := NewVerifier(cMock)

		_, err := verifier.Initiate(ctx, "12345")
		var invalidInput *verification.InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
		assert.Equal(t, "phone_number", invalidInput.Field)
		cMock.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
	})

	t.Run("provider failure becomes a rejection", func(t *testing.T) {
		cMock := &clientMock{}
		cMock.On("SendOTP", ctx, "+919876543210").
			Return(&ProviderError{Message: "number is unreachable"}).
			Once()
		verifier := NewVerifier(cMock)

		_, err := verifier.Initiate(ctx, "+919876543210")
		var rejection *verification.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, "number is unreachable", rejection.Reason)
	})

	t.Run("transport failure passes through", func(t *testing.T) {
		cMock := &clientMock{}
		testError := errors.New("connection refused")
		cMock.On("SendOTP", ctx, "+919876543210").Return(testError).Once()
		verifier := NewVerifier(cMock)

		_, err := verifier.Initiate(ctx, "+919876543210")
		assert.ErrorIs(t, err, testError)
	})

	t.Run("successful send returns a local challenge handle", func(t *testing.T) {
		cMock := &clientMock{}
		cMock.On("SendOTP", ctx, "+919876543210").Return(nil).Once()
		verifier := NewVerifier(cMock)
		verifier.Now = func() time.Time { return now }

		ref, err := verifier.Initiate(ctx, "+919876543210")
		require.NoError(t, err)
		assert.NotEmpty(t, ref.ID)
		assert.Equal(t, now.Add(5*time.Minute), ref.ExpiresAt)
		cMock.AssertExpectations(t)
	})
}

func Test_Verifier_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed OTP fails before any provider call", func(t *testing.T) {
		cMock := &clientMock{}
		verifier := NewVerifier(cMock)

		_, err := verifier.Resolve(ctx, verification.ChallengeRef{ID: "c1"}, "+919876543210", "12")
		var invalidInput *verification.InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
		assert.Equal(t, "otp", invalidInput.Field)
		cMock.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong code becomes a rejection", func(t *testing.T) {
		cMock := &clientMock{}
		cMock.On("VerifyOTP", ctx, "+919876543210", "000000").
			Return(&ProviderError{Message: "invalid otp"}).
			Once()
		verifier := NewVerifier(cMock)

		_, err := verifier.Resolve(ctx, verification.ChallengeRef{ID: "c1"}, "+919876543210", "000000")
		var rejection *verification.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, "invalid otp", rejection.Reason)
	})

	t.Run("successful resolve yields the phone payload", func(t *testing.T) {
		cMock := &clientMock{}
		cMock.On("VerifyOTP", ctx, "+919876543210", "123456").Return(nil).Once()
		verifier := NewVerifier(cMock)

		payload, err := verifier.Resolve(ctx, verification.ChallengeRef{ID: "c1"}, "+919876543210", "123456")
		require.NoError(t, err)
		assert.Equal(t, verification.PhonePayload{PhoneNumber: "+919876543210"}, payload)
	})
}
