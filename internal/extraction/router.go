package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
)

// Router implements ports.Extractor by picking a registered strategy from the
// image media type. Routes map "type/subtype" or "type/*" to a strategy name.
type Router struct {
	registry *Registry
	routes   map[string]string
	fallback string
	logger   *slog.Logger
}

var _ ports.Extractor = (*Router)(nil)

// NewRouter wires the registry with media-type routes and a fallback strategy.
func NewRouter(reg *Registry, routes map[string]string, fallback string, log *slog.Logger) *Router {
	normalized := make(map[string]string, len(routes))
	for mt, name := range routes {
		normalized[strings.ToLower(strings.TrimSpace(mt))] = name
	}
	return &Router{
		registry: reg,
		routes:   normalized,
		fallback: fallback,
		logger:   log,
	}
}

// Extract resolves the strategy for img and runs it once. No retries.
func (r *Router) Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error) {
	if r.registry == nil {
		return domain.ExtractionResult{}, fmt.Errorf("extraction registry is not configured")
	}
	if len(img.Data) == 0 {
		return domain.ExtractionResult{}, fmt.Errorf("image %q is empty", img.Name)
	}

	name := r.route(img.MediaType)
	if name == "" {
		return domain.ExtractionResult{}, fmt.Errorf("no extraction strategy for media type %q", img.MediaType)
	}

	strategy, err := r.registry.Resolve(name)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	r.debug("extract", "strategy", name, "image", img.Name, "media_type", img.MediaType, "bytes", len(img.Data))
	result, err := strategy.Extract(ctx, img)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

func (r *Router) route(mediaType string) string {
	base := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(base); err == nil {
		base = parsed
	}

	if name, ok := r.routes[base]; ok {
		return name
	}
	if major, _, ok := strings.Cut(base, "/"); ok {
		if name, ok := r.routes[major+"/*"]; ok {
			return name
		}
	}
	return r.fallback
}

func (r *Router) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
