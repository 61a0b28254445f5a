package ports

import (
	"context"
	"io"

	"github.com/regtechlab/docrag/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into overlapping windows.
type Chunker interface {
	Split(text string) ([]string, error)
}

// Embedder builds fixed-dimension vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorIndex stores chunk records and performs similarity search.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []domain.DocumentChunk) (domain.UpsertResult, error)
	Search(ctx context.Context, queryVector []float32, k int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	SearchLexical(ctx context.Context, queryText string, k int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	CountMatching(ctx context.Context, filter domain.SearchFilter) (int, error)
	ListUnindexed(ctx context.Context, limit int) ([]domain.DocumentChunk, error)
}

// Reranker rescores retrieval candidates against the query with a finer
// model than the coarse vector similarity.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RetrievedChunk, topK int) (top, all []domain.RetrievedChunk, err error)
}

// Generator produces the grounded answer text for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}
