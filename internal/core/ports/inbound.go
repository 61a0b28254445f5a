package ports

import (
	"context"
	"io"

	"github.com/regtechlab/docrag/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, fileName, mimeType, tenantID string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous chunk/embed/index.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// AutofillService is the inbound contract for grounded field answering.
type AutofillService interface {
	Answer(ctx context.Context, query domain.AutofillQuery) (*domain.AutofillResult, error)
}

// VectorBackfiller re-embeds chunks that were stored without vectors.
type VectorBackfiller interface {
	BackfillVectors(ctx context.Context) (int, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
