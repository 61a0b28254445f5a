package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/regtechlab/docrag/internal/core/domain"
)

func testDoc() *domain.Document {
	return &domain.Document{
		ID:       "doc-1",
		FileName: "policy.pdf",
		BlobName: "doc-1_policy.pdf",
		TenantID: "acme",
		Status:   domain.StatusUploaded,
	}
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := &repoFake{doc: testDoc()}
	index := &indexFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "extracted text"},
		&chunkerFake{pieces: []string{"chunk one", "chunk two", "chunk three"}},
		&embedderFake{dim: 4},
		index,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(index.upserted) != 3 {
		t.Fatalf("expected 3 chunks indexed, got %d", len(index.upserted))
	}
	for i, chunk := range index.upserted {
		if chunk.ChunkID != domain.NewChunkID("doc-1_policy.pdf", chunk.ChunkIndex) {
			t.Fatalf("chunk %d has wrong id %s", i, chunk.ChunkID)
		}
		if chunk.TenantID != "acme" {
			t.Fatalf("chunk %d missing tenant", i)
		}
		if !chunk.IsVectorized || len(chunk.Embedding) != 4 {
			t.Fatalf("chunk %d not embedded: %+v", i, chunk)
		}
	}
	if repo.chunkCount != 3 {
		t.Fatalf("expected chunk count 3, got %d", repo.chunkCount)
	}

	wantStatuses := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusIndexed}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status updates, got %v", repo.statusCalls)
	}
	for i, want := range wantStatuses {
		if repo.statusCalls[i].status != want {
			t.Fatalf("status call %d = %s, want %s", i, repo.statusCalls[i].status, want)
		}
	}
}

func TestProcessByIDEmptyTextMarksFailed(t *testing.T) {
	repo := &repoFake{doc: testDoc()}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "   "},
		&chunkerFake{pieces: []string{"x"}},
		&embedderFake{dim: 4},
		&indexFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed || last.errMsg == "" {
		t.Fatalf("expected failed status with message, got %+v", last)
	}
}

func TestProcessByIDEmbedFailureMarksFailed(t *testing.T) {
	repo := &repoFake{doc: testDoc()}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{pieces: []string{"a", "b"}},
		&embedderFake{dim: 4, embedErr: errors.New("provider down")},
		&indexFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("expected embed error, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", last)
	}
}

func TestProcessByIDPartialIndexFailureReportsKeys(t *testing.T) {
	repo := &repoFake{doc: testDoc()}
	index := &indexFake{upsertRes: domain.UpsertResult{
		Succeeded:  1,
		FailedKeys: []string{"deadbeef_1"},
	}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{pieces: []string{"a", "b"}},
		&embedderFake{dim: 4},
		index,
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "deadbeef_1") {
		t.Fatalf("partial index failure must name failed keys, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", last)
	}
}

func TestProcessByIDEmbedsLargeDocumentInBatches(t *testing.T) {
	pieces := make([]string, 50)
	for i := range pieces {
		pieces[i] = strings.Repeat("x", 10)
	}
	repo := &repoFake{doc: testDoc()}
	embedder := &embedderFake{dim: 4}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{pieces: pieces},
		embedder,
		&indexFake{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	// 50 chunks at batch size 16 means 4 embedding calls.
	if embedder.embedCalls != 4 {
		t.Fatalf("expected 4 embed batches, got %d", embedder.embedCalls)
	}
}
