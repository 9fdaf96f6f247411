package nationalid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradenest/intake-workflow-backend/internal/httpclient"
)

func newClientWithMock(t *testing.T) (*Client, *httpclient.HTTPClientMock) {
	t.Helper()
	httpClientMock := &httpclient.HTTPClientMock{}
	return &Client{
		BasePath:   "http://localhost:8080",
		APIKey:     "test-key",
		HTTPClient: httpClientMock,
	}, httpClientMock
}

func Test_Client_Challenge(t *testing.T) {
	ctx := context.Background()

	t.Run("transport error", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		testError := errors.New("test error")
		httpClientMock.
			On("Do", mock.Anything).
			Return(nil, testError).
			Once()

		_, err := client.Challenge(ctx, "123456789012")
		assert.EqualError(t, err, fmt.Errorf("making request: %w", testError).Error())
	})

	t.Run("provider envelope failure", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status_code": 422, "message": "id number not found"}`)),
			}, nil).
			Once()

		_, err := client.Challenge(ctx, "123456789012")
		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, 422, providerErr.StatusCode)
		assert.Equal(t, "id number not found", providerErr.Message)
	})

	t.Run("missing request id", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status_code": 200}`)),
			}, nil).
			Once()

		_, err := client.Challenge(ctx, "123456789012")
		assert.EqualError(t, err, "provider returned no request_id")
	})

	t.Run("challenge successful", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status_code": 200, "request_id": "req-42"}`)),
			}, nil).
			Run(func(args mock.Arguments) {
				req, ok := args.Get(0).(*http.Request)
				require.True(t, ok)

				assert.Equal(t, "http://localhost:8080/nationalid/challenge", req.URL.String())
				assert.Equal(t, http.MethodPost, req.Method)

				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"id_number": "123456789012"}`, string(body))
			}).
			Once()

		requestID, err := client.Challenge(ctx, "123456789012")
		require.NoError(t, err)
		assert.Equal(t, "req-42", requestID)
	})
}

func Test_Client_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong OTP is a provider error", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status_code": 400, "message": "invalid otp"}`)),
			}, nil).
			Once()

		_, err := client.Verify(ctx, "req-42", "000000")
		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "invalid otp", providerErr.Message)
	})

	t.Run("verify successful", func(t *testing.T) {
		client, httpClientMock := newClientWithMock(t)
		respBody := `{
			"status_code": 200,
			"data": {
				"full_name": "Asha Rao",
				"dob": "1993-04-12",
				"gender": "F",
				"address": "12 MG Road, Bengaluru"
			}
		}`
		httpClientMock.
			On("Do", mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(respBody)),
			}, nil).
			Run(func(args mock.Arguments) {
				req, ok := args.Get(0).(*http.Request)
				require.True(t, ok)

				assert.Equal(t, "http://localhost:8080/nationalid/verify", req.URL.String())

				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"request_id": "req-42", "otp": "123456"}`, string(body))
			}).
			Once()

		data, err := client.Verify(ctx, "req-42", "123456")
		require.NoError(t, err)
		assert.Equal(t, &IdentityData{
			FullName:    "Asha Rao",
			DateOfBirth: "1993-04-12",
			Gender:      "F",
			Address:     "12 MG Road, Bengaluru",
		}, data)
	})
}
