package crossencoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/regtechlab/docrag/internal/core/domain"
)

func TestRerankOrdersByScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		var payload rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Query != "what is the retention period" {
			t.Fatalf("unexpected query %q", payload.Query)
		}
		_, _ = w.Write([]byte(`[{"index":0,"score":0.12},{"index":1,"score":0.91},{"index":2,"score":0.55}]`))
	}))
	defer server.Close()

	client := New(server.URL, "bge-reranker", time.Second)
	candidates := []domain.RetrievedChunk{
		{ChunkID: "a", Content: "first", VectorScore: 0.9},
		{ChunkID: "b", Content: "second", VectorScore: 0.8},
		{ChunkID: "c", Content: "third", VectorScore: 0.7},
	}

	top, all, err := client.Rerank(context.Background(), "what is the retention period", candidates, 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(top) != 2 || top[0].ChunkID != "b" || top[1].ChunkID != "c" {
		t.Fatalf("unexpected top order: %+v", top)
	}
	if len(all) != 3 || all[2].ChunkID != "a" {
		t.Fatalf("unexpected full order: %+v", all)
	}
	if top[0].RerankScore != 0.91 {
		t.Fatalf("expected rerank score on chunk, got %v", top[0].RerankScore)
	}
}

func TestRerankKeepsRetrievalOrderOnTies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"index":0,"score":0.5},{"index":1,"score":0.5}]`))
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	candidates := []domain.RetrievedChunk{
		{ChunkID: "a", Content: "first"},
		{ChunkID: "b", Content: "second"},
	}
	top, _, err := client.Rerank(context.Background(), "q", candidates, 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if top[0].ChunkID != "a" || top[1].ChunkID != "b" {
		t.Fatalf("tied scores must keep retrieval order, got %+v", top)
	}
}

func TestRerankEmptyCandidates(t *testing.T) {
	client := New("http://unused", "", time.Second)
	top, all, err := client.Rerank(context.Background(), "q", nil, 5)
	if err != nil || top != nil || all != nil {
		t.Fatalf("expected empty result without error, got %v %v %v", top, all, err)
	}
}

func TestRerankServerFailureIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	_, _, err := client.Rerank(context.Background(), "q", []domain.RetrievedChunk{{ChunkID: "a", Content: "x"}}, 1)
	if !domain.IsKind(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable kind, got %v", err)
	}
}

func TestRerankRejectsOutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"index":7,"score":0.5}]`))
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	_, _, err := client.Rerank(context.Background(), "q", []domain.RetrievedChunk{{ChunkID: "a", Content: "x"}}, 1)
	if err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}
