package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/core/ports"
)

// VectorBackfillUseCase re-embeds chunks that were stored without a dense
// vector, typically after an embedding outage let writes through with
// is_vectorized=false. It drains the backlog in fixed-size pages until the
// index reports none left.
type VectorBackfillUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	pageSize int
	log      *slog.Logger
}

func NewVectorBackfillUseCase(embedder ports.Embedder, index ports.VectorIndex, pageSize int, log *slog.Logger) *VectorBackfillUseCase {
	if pageSize <= 0 {
		pageSize = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &VectorBackfillUseCase{
		embedder: embedder,
		index:    index,
		pageSize: pageSize,
		log:      log,
	}
}

func (uc *VectorBackfillUseCase) BackfillVectors(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		chunks, err := uc.index.ListUnindexed(ctx, uc.pageSize)
		if err != nil {
			return total, fmt.Errorf("list unindexed chunks: %w", err)
		}
		if len(chunks) == 0 {
			return total, nil
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed backfill page: %w", err)
		}
		if len(vectors) != len(chunks) {
			return total, domain.WrapError(domain.ErrDimensionMismatch, "backfill",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
			chunks[i].IsVectorized = true
		}

		result, err := uc.index.Upsert(ctx, chunks)
		if err != nil {
			return total, fmt.Errorf("upsert backfill page: %w", err)
		}
		total += result.Succeeded
		if len(result.FailedKeys) > 0 {
			// Failed keys stay unvectorized and come back on the next run.
			uc.log.Warn("backfill_partial_failure",
				"failed", len(result.FailedKeys), "succeeded", result.Succeeded)
			return total, fmt.Errorf("backfill: %d records failed (keys: %s)",
				len(result.FailedKeys), summarizeKeys(result.FailedKeys))
		}
		if len(chunks) < uc.pageSize {
			return total, nil
		}
	}
}
