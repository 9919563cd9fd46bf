package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"SlicerQC/internal/config"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiExtractor reads reports with a Gemini vision model and a JSON response schema.
type GeminiExtractor struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

var _ extraction.Strategy = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates the GenAI client.
func NewGeminiExtractor(ctx context.Context, cfg config.GeminiConfig, systemPrompt string) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiExtractor{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

// Name identifies the strategy inside the registry.
func (g *GeminiExtractor) Name() string {
	return "gemini"
}

// Extract sends the prompt and the inline image, asking for schema-conformant JSON.
func (g *GeminiExtractor) Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Extract the report fields."),
			genai.NewPartFromBytes(img.Data, mediaTypeOrDefault(img.MediaType)),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(safePrompt(g.systemPrompt), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	})
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("gemini generate content: %w", err)
	}

	return ParseResponse(resp.Text())
}

func responseSchema() *genai.Schema {
	nullable := genai.Ptr(true)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":          {Type: genai.TypeString, Description: "Format: YYYY/MM/DD", Nullable: nullable},
			"time":          {Type: genai.TypeString, Description: "Format: HH:MM", Nullable: nullable},
			"max_thickness": {Type: genai.TypeNumber, Nullable: nullable},
			"min_thickness": {Type: genai.TypeNumber, Nullable: nullable},
			"x_bar":         {Type: genai.TypeNumber, Nullable: nullable},
		},
		Required: []string{"date", "time", "max_thickness", "min_thickness", "x_bar"},
	}
}
