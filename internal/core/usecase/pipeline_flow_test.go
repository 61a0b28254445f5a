package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/infrastructure/chunking"
)

// Runs a document through the real splitter and both pipeline halves: a
// 2500-char document at size 1000 / overlap 200 must land in the index as
// 4 vectorized chunks, and a question matching only the second chunk must
// rank that chunk first after reranking.
func TestIngestToRetrievalLifecycle(t *testing.T) {
	const marker = "human oversight escalation contact"

	raw := []byte(strings.Repeat("audit trail record keeping ", 100))[:2500]
	// Offset 1200 falls inside the second window (800..1800) only.
	copy(raw[1200:], marker)
	text := string(raw)

	splitter, err := chunking.NewSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	repo := &repoFake{doc: &domain.Document{
		ID:       "doc-1",
		BlobName: "blob-1",
		FileName: "oversight_policy.txt",
		TenantID: "acme",
		Status:   domain.StatusUploaded,
	}}
	index := &indexFake{}
	embedder := &embedderFake{dim: 8}

	proc := NewProcessDocumentUseCase(repo, &extractorFake{text: text}, splitter, embedder, index)
	if err := proc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(index.upserted) != 4 {
		t.Fatalf("indexed chunks = %d, want 4", len(index.upserted))
	}
	if repo.chunkCount != 4 {
		t.Fatalf("chunk count = %d, want 4", repo.chunkCount)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusIndexed {
		t.Fatalf("final status = %s, want %s", last.status, domain.StatusIndexed)
	}

	markerIdx := -1
	for _, chunk := range index.upserted {
		if !chunk.IsVectorized || len(chunk.Embedding) != 8 {
			t.Fatalf("chunk %d not vectorized: is_vectorized=%v dim=%d", chunk.ChunkIndex, chunk.IsVectorized, len(chunk.Embedding))
		}
		if chunk.ChunkID != domain.NewChunkID("blob-1", chunk.ChunkIndex) {
			t.Fatalf("chunk id %q does not derive from blob and index", chunk.ChunkID)
		}
		if chunk.TenantID != "acme" {
			t.Fatalf("chunk %d tenant = %q", chunk.ChunkIndex, chunk.TenantID)
		}
		if strings.Contains(chunk.Content, marker) {
			markerIdx = chunk.ChunkIndex
		}
	}
	if markerIdx != 1 {
		t.Fatalf("marker landed in chunk %d, want 1", markerIdx)
	}

	// Query half: vector recall returns the indexed chunks with the marker
	// chunk buried; the cross encoder promotes it.
	candidates := make([]domain.RetrievedChunk, 0, len(index.upserted))
	var markerChunk domain.RetrievedChunk
	for _, chunk := range index.upserted {
		rc := domain.RetrievedChunk{
			ChunkID:     chunk.ChunkID,
			Content:     chunk.Content,
			FileName:    chunk.FileName,
			BlobName:    chunk.BlobName,
			ChunkIndex:  chunk.ChunkIndex,
			TenantID:    chunk.TenantID,
			VectorScore: 0.9 - 0.1*float64(chunk.ChunkIndex),
		}
		candidates = append(candidates, rc)
		if chunk.ChunkIndex == markerIdx {
			markerChunk = rc
		}
	}

	reranked := make([]domain.RetrievedChunk, 0, len(candidates))
	markerChunk.RerankScore = 0.99
	reranked = append(reranked, markerChunk)
	for _, rc := range candidates {
		if rc.ChunkID == markerChunk.ChunkID {
			continue
		}
		rc.RerankScore = 0.2
		reranked = append(reranked, rc)
	}

	queryIndex := &indexFake{count: len(candidates), semantic: candidates}
	gen := &generatorFake{answer: "Escalate to the designated oversight officer [doc1]."}
	uc := NewAutofillUseCase(
		&embedderFake{dim: 8},
		queryIndex,
		&rerankerFake{top: reranked},
		gen,
		AutofillConfig{RecallK: 30, TopK: 4},
		nil,
		nil,
	)

	result, err := uc.Answer(context.Background(), domain.AutofillQuery{
		Question: "Who is the human oversight escalation contact?",
		TenantID: "acme",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Answer != "Escalate to the designated oversight officer ." {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
	if len(result.Chunks) == 0 || result.Chunks[0].ID != markerChunk.ChunkID {
		t.Fatalf("marker chunk not ranked first: %+v", result.Chunks)
	}
	if result.Chunks[0].ChunkIndex != markerIdx {
		t.Fatalf("top chunk index = %d, want %d", result.Chunks[0].ChunkIndex, markerIdx)
	}
	if len(result.References) != 1 || result.References[0].FileName != "oversight_policy.txt" {
		t.Fatalf("unexpected references: %+v", result.References)
	}
}
