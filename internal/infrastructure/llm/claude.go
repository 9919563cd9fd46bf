package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"SlicerQC/internal/config"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// ClaudeExtractor reads reports with an Anthropic vision model.
type ClaudeExtractor struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	systemPrompt string
}

var _ extraction.Strategy = (*ClaudeExtractor)(nil)

// NewClaudeExtractor builds a client from configuration.
func NewClaudeExtractor(cfg config.AnthropicConfig, systemPrompt string) (*ClaudeExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &ClaudeExtractor{
		client:       anthropic.NewClient(opts...),
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}, nil
}

// Name identifies the strategy inside the registry.
func (c *ClaudeExtractor) Name() string {
	return "anthropic"
}

// Extract sends the image as a base64 block and decodes the text answer.
func (c *ClaudeExtractor) Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error) {
	encoded := base64.StdEncoding.EncodeToString(img.Data)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: safePrompt(c.systemPrompt)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaTypeOrDefault(img.MediaType), encoded),
				anthropic.NewTextBlock("Extract the report fields as JSON."),
			),
		},
	})
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return ParseResponse(block.Text)
		}
	}
	return domain.ExtractionResult{}, fmt.Errorf("no text content in anthropic response")
}
