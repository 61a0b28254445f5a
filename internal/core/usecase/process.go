package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/core/ports"
)

const (
	embedBatchSize      = 16
	maxConcurrentEmbeds = 5
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, documentID, chunkCount); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.markStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return 0, err
	}

	chunks, err := uc.buildChunks(doc, text)
	if err != nil {
		return 0, err
	}

	if err := uc.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	result, err := uc.index.Upsert(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	if len(result.FailedKeys) > 0 {
		return 0, fmt.Errorf("index chunks: %d of %d records failed (keys: %s)",
			len(result.FailedKeys), len(chunks), summarizeKeys(result.FailedKeys))
	}

	return len(chunks), nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) buildChunks(doc *domain.Document, text string) ([]domain.DocumentChunk, error) {
	pieces, err := uc.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(pieces) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	chunks := make([]domain.DocumentChunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = domain.DocumentChunk{
			ChunkID:    domain.NewChunkID(doc.BlobName, i),
			Content:    content,
			FileName:   doc.FileName,
			BlobName:   doc.BlobName,
			ChunkIndex: i,
			TenantID:   doc.TenantID,
		}
	}
	return chunks, nil
}

// embedChunks fills in chunk vectors batch by batch, with a bounded number
// of provider calls in flight.
func (uc *ProcessDocumentUseCase) embedChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbeds)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}
			vectors, err := uc.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %s..%s: %w", batch[0].ChunkID, batch[len(batch)-1].ChunkID, err)
			}
			if len(vectors) != len(batch) {
				return domain.WrapError(domain.ErrDimensionMismatch, "embed chunks",
					fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
				batch[i].IsVectorized = true
			}
			return nil
		})
	}

	return g.Wait()
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

func summarizeKeys(keys []string) string {
	const maxShown = 5
	if len(keys) <= maxShown {
		return strings.Join(keys, ", ")
	}
	return strings.Join(keys[:maxShown], ", ") + fmt.Sprintf(" and %d more", len(keys)-maxShown)
}
