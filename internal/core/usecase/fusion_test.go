package usecase

import (
	"testing"

	"github.com/regtechlab/docrag/internal/core/domain"
)

func TestFuseCandidatesRRFPrefersAgreement(t *testing.T) {
	semantic := []domain.RetrievedChunk{
		retrieved("shared", "b1", "f1.pdf", 0, 0.9),
		retrieved("dense-only", "b2", "f2.pdf", 0, 0.8),
	}
	lexical := []domain.RetrievedChunk{
		retrieved("lex-only", "b3", "f3.pdf", 0, 11.0),
		retrieved("shared", "b1", "f1.pdf", 0, 9.0),
	}

	fused := fuseCandidatesRRF(semantic, lexical, 60)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}
	if fused[0].ChunkID != "shared" {
		t.Fatalf("chunk present in both lists must rank first, got %s", fused[0].ChunkID)
	}
}

func TestFuseCandidatesRRFDeterministicTieBreak(t *testing.T) {
	a := retrieved("", "blob-a", "a.pdf", 0, 0.9)
	b := retrieved("", "blob-b", "b.pdf", 0, 0.9)

	first := fuseCandidatesRRF([]domain.RetrievedChunk{a}, []domain.RetrievedChunk{b}, 60)
	second := fuseCandidatesRRF([]domain.RetrievedChunk{a}, []domain.RetrievedChunk{b}, 60)
	if first[0].BlobName != second[0].BlobName {
		t.Fatalf("tie break must be deterministic")
	}
	if first[0].BlobName != "blob-a" {
		t.Fatalf("ties break on blob name, got %s", first[0].BlobName)
	}
}

func TestTrimCandidates(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		retrieved("a", "b", "f", 0, 1),
		retrieved("b", "b", "f", 1, 2),
	}
	if got := trimCandidates(chunks, 1); len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got := trimCandidates(chunks, 0); len(got) != 2 {
		t.Fatalf("limit 0 must keep all, got %d", len(got))
	}
	if got := trimCandidates(chunks, 5); len(got) != 2 {
		t.Fatalf("limit above length must keep all, got %d", len(got))
	}
}
