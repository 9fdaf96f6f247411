// Package phoneotp is the client for the phone OTP provider: one call sends
// a one-time password to the phone number, a second call checks the code the
// user typed.
package phoneotp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tradenest/intake-workflow-backend/internal/httpclient"
)

const (
	sendPath   = "/phone-otp/send"
	verifyPath = "/phone-otp/verify"
)

type ClientInterface interface {
	SendOTP(ctx context.Context, identifier string) error
	VerifyOTP(ctx context.Context, identifier, otp string) error
}

// Client provides methods to interact with the phone OTP provider API.
type Client struct {
	BasePath   string
	APIKey     string
	HTTPClient httpclient.HTTPClientInterface
}

func NewClient(basePath, apiKey string) *Client {
	return &Client{
		BasePath:   basePath,
		APIKey:     apiKey,
		HTTPClient: httpclient.DefaultClient(),
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendOTP asks the provider to deliver an OTP to the identifier.
func (client *Client) SendOTP(ctx context.Context, identifier string) error {
	body := map[string]string{"identifier": identifier}
	return client.post(ctx, sendPath, body)
}

// VerifyOTP checks the OTP the user typed against the one the provider sent.
func (client *Client) VerifyOTP(ctx context.Context, identifier, otp string) error {
	body := map[string]string{"identifier": identifier, "otp": otp}
	return client.post(ctx, verifyPath, body)
}

func (client *Client) post(ctx context.Context, path string, body map[string]string) error {
	u, err := url.JoinPath(client.BasePath, path)
	if err != nil {
		return fmt.Errorf("building path: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if client.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.APIKey)
	}

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	if !apiResp.Success {
		return &ProviderError{Message: apiResp.Error}
	}

	return nil
}

// ProviderError is a business failure declared by the provider (wrong OTP,
// unreachable number), as opposed to a transport failure.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("phone OTP provider error: %s", e.Message)
}

var _ ClientInterface = (*Client)(nil)
