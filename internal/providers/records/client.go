// Package records is the client for the records service that owns the final
// intake submission. It differentiates duplicate conflicts, server-side
// validation failures, and transport failures so the workflow can react to
// each.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/tradenest/intake-workflow-backend/internal/httpclient"
)

const recordsPath = "/records"

type ClientInterface interface {
	Create(ctx context.Context, payload map[string]any) (*CreatedRecord, error)
}

type CreatedRecord struct {
	ID string `json:"id"`
}

// ConflictError is a duplicate record: identity fields already on record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record already exists: %s", e.Message)
}

// ValidationError carries the server-reported field errors, keyed by field
// name.
type ValidationError struct {
	Message string
	Fields  map[string]any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record rejected: %s", e.Message)
}

// Client provides methods to interact with the records service API.
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

type errorResponse struct {
	Message string         `json:"message"`
	Extras  map[string]any `json:"extras,omitempty"`
}

// Create submits the assembled record. An idempotency key covers the create
// against duplicated deliveries.
func (client *Client) Create(ctx context.Context, payload map[string]any) (*CreatedRecord, error) {
	u, err := url.JoinPath(client.BasePath, recordsPath)
	if err != nil {
		return nil, fmt.Errorf("building path: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling record payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if client.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.APIKey)
	}

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		var created CreatedRecord
		if err = json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return nil, fmt.Errorf("decoding created record: %w", err)
		}
		return &created, nil

	case resp.StatusCode == http.StatusConflict:
		errResp := parseErrorResponse(resp)
		return nil, &ConflictError{Message: errResp.Message}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		errResp := parseErrorResponse(resp)
		return nil, &ValidationError{Message: errResp.Message, Fields: errResp.Extras}

	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func parseErrorResponse(resp *http.Response) errorResponse {
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		errResp.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return errResp
}

var _ ClientInterface = (*Client)(nil)
