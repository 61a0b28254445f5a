package usecase

import (
	"fmt"
	"sort"

	"github.com/regtechlab/docrag/internal/core/domain"
)

type fusedCandidate struct {
	chunk domain.RetrievedChunk
	score float64
}

// fuseCandidatesRRF merges the semantic and lexical result lists with
// reciprocal rank fusion. The fused score lands in VectorScore so the
// downstream reranker treats hybrid and dense-only retrieval the same way.
func fuseCandidatesRRF(semantic, lexical []domain.RetrievedChunk, rrfK int) []domain.RetrievedChunk {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(semantic)+len(lexical))
	addList := func(chunks []domain.RetrievedChunk) {
		for rank, chunk := range chunks {
			key := retrievalChunkKey(chunk)
			candidate := acc[key]
			candidate.chunk = preferRicherChunk(candidate.chunk, chunk)
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.RetrievedChunk, 0, len(acc))
	for _, c := range acc {
		chunk := c.chunk
		chunk.VectorScore = c.score
		out = append(out, chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VectorScore != out[j].VectorScore {
			return out[i].VectorScore > out[j].VectorScore
		}
		if out[i].BlobName != out[j].BlobName {
			return out[i].BlobName < out[j].BlobName
		}
		if out[i].ChunkIndex != out[j].ChunkIndex {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return out[i].FileName < out[j].FileName
	})

	return out
}

func trimCandidates(chunks []domain.RetrievedChunk, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}

func retrievalChunkKey(chunk domain.RetrievedChunk) string {
	if chunk.ChunkID != "" {
		return chunk.ChunkID
	}
	return fmt.Sprintf("%s|%d|%s", chunk.BlobName, chunk.ChunkIndex, chunk.FileName)
}

func preferRicherChunk(current, candidate domain.RetrievedChunk) domain.RetrievedChunk {
	if current.ChunkID == "" && current.FileName == "" && current.Content == "" {
		return candidate
	}
	if current.Content == "" && candidate.Content != "" {
		current.Content = candidate.Content
	}
	if current.FileName == "" && candidate.FileName != "" {
		current.FileName = candidate.FileName
	}
	if current.BlobName == "" && candidate.BlobName != "" {
		current.BlobName = candidate.BlobName
	}
	if current.TenantID == "" && candidate.TenantID != "" {
		current.TenantID = candidate.TenantID
	}
	return current
}
