package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
)

// Client talks to an external OCR service that understands thickness reports.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ extraction.Strategy = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "ocr"
}

// Extract uploads the image and decodes the recognized fields.
func (c *Client) Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error) {
	if c.endpoint == "" {
		return domain.ExtractionResult{}, fmt.Errorf("ocr endpoint is not configured")
	}

	payload := map[string]any{
		"name":       img.Name,
		"media_type": img.MediaType,
		"image":      base64.StdEncoding.EncodeToString(img.Data),
	}

	var result domain.ExtractionResult
	if err := c.post(ctx, "/extract", payload, &result); err != nil {
		return domain.ExtractionResult{}, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
