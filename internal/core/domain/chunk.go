package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// DocumentChunk is one chunking window of a source document, plus the
// metadata needed to index and later attribute it.
type DocumentChunk struct {
	ChunkID      string    `json:"chunk_id"`
	Content      string    `json:"content"`
	FileName     string    `json:"file_name"`
	BlobName     string    `json:"blob_name"`
	ChunkIndex   int       `json:"chunk_index"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Embedding    []float32 `json:"-"`
	IsVectorized bool      `json:"is_vectorized"`
}

// NewChunkID derives a deterministic chunk key from the source blob name and
// the chunk position, so re-indexing the same blob overwrites its own chunks
// and nothing else.
func NewChunkID(blobName string, index int) string {
	sum := md5.Sum([]byte(blobName))
	return fmt.Sprintf("%s_%d", hex.EncodeToString(sum[:])[:8], index)
}

// RetrievedChunk is query-scoped: a chunk as it came back from the vector
// index, with the coarse similarity score and, after reranking, the
// cross-encoder score.
type RetrievedChunk struct {
	ChunkID     string  `json:"chunk_id"`
	Content     string  `json:"content"`
	FileName    string  `json:"file_name"`
	BlobName    string  `json:"blob_name"`
	ChunkIndex  int     `json:"chunk_index"`
	TenantID    string  `json:"tenant_id,omitempty"`
	VectorScore float64 `json:"vector_score"`
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// Score returns the best relevance signal available for the chunk.
func (c RetrievedChunk) Score() float64 {
	if c.RerankScore != 0 {
		return c.RerankScore
	}
	return c.VectorScore
}

// SearchFilter scopes retrieval. TenantID equality is the sole isolation
// mechanism between tenants' documents.
type SearchFilter struct {
	TenantID string
}

// SourceReference identifies one originating document of an answer.
type SourceReference struct {
	BlobName string `json:"blob_name"`
	FileName string `json:"file_name"`
}

type ChunkScore struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

// AutofillResult is the outcome of one pipeline invocation. An empty Answer
// is the documented "no grounded answer available" signal; callers use it to
// trigger a manual-input flow instead of rendering an empty field.
type AutofillResult struct {
	Answer     string            `json:"answer"`
	Selections []string          `json:"selections,omitempty"`
	References []SourceReference `json:"references"`
	Chunks     []ChunkScore      `json:"retrieved_chunks"`
}

// EmptyResult is the canonical no-grounded-answer value.
func EmptyResult() *AutofillResult {
	return &AutofillResult{
		Answer:     "",
		References: []SourceReference{},
		Chunks:     []ChunkScore{},
	}
}

// UpsertResult reports a partially successful index write: failures are
// per-record data, not an aggregate error.
type UpsertResult struct {
	Succeeded  int
	FailedKeys []string
}
