package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/regtechlab/docrag/internal/core/domain"
)

func TestUploadStoresBlobAndPublishesEvent(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "AI Act report.pdf", "application/pdf", "acme", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}
	if doc.TenantID != "acme" {
		t.Fatalf("expected tenant id on document, got %q", doc.TenantID)
	}
	if len(storage.savedKeys) != 1 || !strings.HasSuffix(storage.savedKeys[0], "_AI_Act_report.pdf") {
		t.Fatalf("unexpected blob name: %v", storage.savedKeys)
	}
	if doc.BlobName != storage.savedKeys[0] {
		t.Fatalf("document blob name must match storage key")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected ingestion event for %s, got %v", doc.ID, queue.published)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("expected document persisted")
	}
}

func TestUploadRequiresTenant(t *testing.T) {
	uc := NewIngestDocumentUseCase(&repoFake{}, &storageFake{}, &queueFake{})
	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", "  ", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadStorageFailureStopsPipeline(t *testing.T) {
	repo := &repoFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{saveErr: errors.New("disk full")}, queue)

	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", "acme", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected storage error, got %v", err)
	}
	if repo.created != nil || len(queue.published) != 0 {
		t.Fatalf("nothing may be persisted or published after storage failure")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"simple.txt":            "simple.txt",
		"with space.pdf":        "with_space.pdf",
		"../../etc/passwd":      "passwd",
		"отчёт.docx":            "_____.docx",
		"":                      "document.bin",
		"weird$chars%here.json": "weird_chars_here.json",
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
