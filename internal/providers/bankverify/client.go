// Package bankverify is the client for the bank account and UPI lookup
// provider. Both lookups resolve in a single call: there is no user-facing
// challenge step.
package bankverify

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
	verifyAccountPath = "/bank/verify-account"
	verifyUPIPath     = "/bank/verify-upi"

	statusSuccess = "success"
)

type ClientInterface interface {
	VerifyAccount(ctx context.Context, accountNumber, ifsc string) (*AccountData, error)
	VerifyUPI(ctx context.Context, upiID string) (*UPIData, error)
}

type AccountData struct {
	AccountExists bool   `json:"account_exists"`
	FullName      string `json:"full_name"`
}

type UPIData struct {
	AccountExists bool   `json:"account_exists"`
	NameAtBank    string `json:"name_at_bank"`
}

// Client provides methods to interact with the bank verification provider API.
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

type accountResponse struct {
	Status  string       `json:"status"`
	Data    *AccountData `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

type upiResponse struct {
	Status  string   `json:"status"`
	Data    *UPIData `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
}

// VerifyAccount performs a penny-drop style lookup of the account.
func (client *Client) VerifyAccount(ctx context.Context, accountNumber, ifsc string) (*AccountData, error) {
	var accountResp accountResponse
	body := map[string]string{"id_number": accountNumber, "ifsc": ifsc}
	if err := client.post(ctx, verifyAccountPath, body, &accountResp); err != nil {
		return nil, err
	}

	if accountResp.Status != statusSuccess || accountResp.Data == nil {
		return nil, &ProviderError{Message: accountResp.Message}
	}

	return accountResp.Data, nil
}

// VerifyUPI resolves the UPI handle to the name registered at the bank.
func (client *Client) VerifyUPI(ctx context.Context, upiID string) (*UPIData, error) {
	var upiResp upiResponse
	body := map[string]string{"upi_id": upiID}
	if err := client.post(ctx, verifyUPIPath, body, &upiResp); err != nil {
		return nil, err
	}

	if upiResp.Status != statusSuccess || upiResp.Data == nil {
		return nil, &ProviderError{Message: upiResp.Message}
	}

	return upiResp.Data, nil
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

// ProviderError is a business failure declared by the provider, distinct
// from a transport failure.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("bank verification provider error: %s", e.Message)
}

var _ ClientInterface = (*Client)(nil)
