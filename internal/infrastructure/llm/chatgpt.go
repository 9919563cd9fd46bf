package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SlicerQC/internal/config"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
)

// ChatGPTExtractor reads reports through an OpenAI-compatible vision endpoint.
type ChatGPTExtractor struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ extraction.Strategy = (*ChatGPTExtractor)(nil)

// NewChatGPTExtractor builds a client from configuration.
func NewChatGPTExtractor(cfg config.ChatGPTConfig, systemPrompt string) *ChatGPTExtractor {
	return &ChatGPTExtractor{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: systemPrompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name identifies the strategy inside the registry.
func (c *ChatGPTExtractor) Name() string {
	return "chatgpt"
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract posts the image as a data URL and decodes the JSON answer.
func (c *ChatGPTExtractor) Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error) {
	if c == nil {
		return domain.ExtractionResult{}, fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.ExtractionResult{}, fmt.Errorf("chatgpt client misconfigured")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mediaTypeOrDefault(img.MediaType), base64.StdEncoding.EncodeToString(img.Data))
	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Extract the report fields as JSON."},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			}},
		},
	})
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("send image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ExtractionResult{}, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return domain.ExtractionResult{}, fmt.Errorf("chatgpt returned no choices")
	}

	return ParseResponse(decoded.Choices[0].Message.Content)
}
