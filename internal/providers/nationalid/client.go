// Package nationalid is the client for the national identity provider. The
// lookup is a two-call challenge: the provider sends an OTP to the contact
// registered against the ID number and returns a request ID, which the
// second call resolves together with the OTP.
package nationalid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tradenest/intake-workflow-backend/internal/httpclient"
)

const (
	challengePath = "/nationalid/challenge"
	verifyPath    = "/nationalid/verify"

	statusOK = 200
)

type ClientInterface interface {
	Challenge(ctx context.Context, idNumber string) (string, error)
	Verify(ctx context.Context, requestID, otp string) (*IdentityData, error)
}

// IdentityData is the identity record the provider discloses once the
// challenge resolves.
type IdentityData struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"dob"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

// Client provides methods to interact with the national ID provider API.
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

type challengeResponse struct {
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id"`
	Message    string `json:"message,omitempty"`
}

type verifyResponse struct {
	StatusCode int           `json:"status_code"`
	Data       *IdentityData `json:"data,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Challenge starts an OTP challenge for the ID number and returns the
// provider's request ID for it.
func (client *Client) Challenge(ctx context.Context, idNumber string) (string, error) {
	var challengeResp challengeResponse
	err := client.post(ctx, challengePath, map[string]string{"id_number": idNumber}, &challengeResp)
	if err != nil {
		return "", err
	}

	if challengeResp.StatusCode != statusOK {
		return "", &ProviderError{StatusCode: challengeResp.StatusCode, Message: challengeResp.Message}
	}
	if challengeResp.RequestID == "" {
		return "", fmt.Errorf("provider returned no request_id")
	}

	return challengeResp.RequestID, nil
}

// Verify resolves a pending challenge with the OTP the user typed.
func (client *Client) Verify(ctx context.Context, requestID, otp string) (*IdentityData, error) {
	var verifyResp verifyResponse
	err := client.post(ctx, verifyPath, map[string]string{"request_id": requestID, "otp": otp}, &verifyResp)
	if err != nil {
		return nil, err
	}

	if verifyResp.StatusCode != statusOK {
		return nil, &ProviderError{StatusCode: verifyResp.StatusCode, Message: verifyResp.Message}
	}
	if verifyResp.Data == nil {
		return nil, fmt.Errorf("provider returned no identity data")
	}

	return verifyResp.Data, nil
}

func (client *Client) post(ctx context.Context, path string, body map[string]string, into any) error {
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
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// ProviderError is a business failure declared in the provider's response
// envelope, distinct from a transport failure.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("national ID provider error (status %d): %s", e.StatusCode, e.Message)
}

var _ ClientInterface = (*Client)(nil)
