package extractor

import (
	"context"
	"strings"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/core/ports"
)

// Dispatcher routes extraction by MIME type. Anything not explicitly
// mapped falls through to the default extractor.
type Dispatcher struct {
	byMime    map[string]ports.TextExtractor
	defaultEx ports.TextExtractor
}

func NewDispatcher(defaultEx ports.TextExtractor) *Dispatcher {
	return &Dispatcher{
		byMime:    make(map[string]ports.TextExtractor),
		defaultEx: defaultEx,
	}
}

func (d *Dispatcher) Register(mimeType string, ex ports.TextExtractor) *Dispatcher {
	d.byMime[normalizeMime(mimeType)] = ex
	return d
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if ex, ok := d.byMime[normalizeMime(doc.MimeType)]; ok {
		return ex.Extract(ctx, doc)
	}
	return d.defaultEx.Extract(ctx, doc)
}

func normalizeMime(mimeType string) string {
	// Strip parameters such as "; charset=utf-8".
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
