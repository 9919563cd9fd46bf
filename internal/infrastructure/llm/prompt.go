package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"SlicerQC/internal/domain"
)

// DefaultSystemPrompt instructs a vision model to read a thickness report.
const DefaultSystemPrompt = `You are an industrial quality-control assistant.
Extract fields from the slice thickness measurement report image.
Fields to extract:
- date (format YYYY/MM/DD)
- time (format HH:MM)
- max_thickness: maximum thickness in mm
- min_thickness: minimum thickness in mm
- x_bar: average thickness in mm

Requirements:
- Extract ONLY numeric values for thickness.
- If a value is unreadable or missing, return null.
- Return strictly valid JSON with keys date, time, max_thickness, min_thickness, x_bar.
- Do not include explanations or chat.`

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return DefaultSystemPrompt
	}
	return prompt
}

func mediaTypeOrDefault(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return "image/png"
	}
	return mt
}

// ParseResponse decodes the model's JSON answer, tolerating Markdown fences
// and surrounding prose.
func ParseResponse(text string) (domain.ExtractionResult, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	if body == "" {
		return domain.ExtractionResult{}, fmt.Errorf("empty model response")
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("decode model response: %w", err)
	}
	return result, nil
}
