// Package assetstore is the client for the object storage gateway: it
// presigns upload slots, transfers raw content, and finalizes storage keys
// into durable reference URLs.
package assetstore

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
	presignPath  = "/uploads/presign"
	finalizePath = "/uploads/finalize"
)

type ClientInterface interface {
	Presign(ctx context.Context, files []FileSpec) ([]PresignedUpload, error)
	Upload(ctx context.Context, uploadURL string, content []byte, contentType string) error
	Finalize(ctx context.Context, keys []string) ([]string, error)
}

// FileSpec names one logical slot to presign.
type FileSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PresignedUpload is one presigned slot: the opaque storage key the gateway
// minted (its suffix encodes the logical name) and the URL to PUT the
// content to.
type PresignedUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// Client provides methods to interact with the object storage gateway API.
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

type presignRequest struct {
	Files []FileSpec `json:"files"`
}

type presignResponse struct {
	URLs []PresignedUpload `json:"urls"`
}

type finalizeRequest struct {
	FileKeys []string `json:"fileKeys"`
}

type finalizeResponse struct {
	FinalURLs []string `json:"finalUrls"`
}

// Presign requests one upload slot per file. The response list is positional
// against the request list; later phases must not rely on position.
func (client *Client) Presign(ctx context.Context, files []FileSpec) ([]PresignedUpload, error) {
	var presignResp presignResponse
	if err := client.post(ctx, presignPath, presignRequest{Files: files}, &presignResp); err != nil {
		return nil, err
	}

	if len(presignResp.URLs) != len(files) {
		return nil, fmt.Errorf("provider returned %d slots for %d files", len(presignResp.URLs), len(files))
	}

	return presignResp.URLs, nil
}

// Upload transfers the raw content to the presigned URL.
func (client *Client) Upload(ctx context.Context, uploadURL string, content []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(content))

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Finalize exchanges storage keys for durable reference URLs. The response
// ordering is not guaranteed to mirror the request ordering.
func (client *Client) Finalize(ctx context.Context, keys []string) ([]string, error) {
	var finalizeResp finalizeResponse
	if err := client.post(ctx, finalizePath, finalizeRequest{FileKeys: keys}, &finalizeResp); err != nil {
		return nil, err
	}

	if len(finalizeResp.FinalURLs) != len(keys) {
		return nil, fmt.Errorf("provider returned %d references for %d keys", len(finalizeResp.FinalURLs), len(keys))
	}

	return finalizeResp.FinalURLs, nil
}

func (client *Client) post(ctx context.Context, path string, body any, into any) error {
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

	if err = json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

var _ ClientInterface = (*Client)(nil)
