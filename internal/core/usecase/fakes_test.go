package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/regtechlab/docrag/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	doc           *domain.Document
	created       *domain.Document
	getErr        error
	createErr     error
	statusErr     error
	failStatusErr error
	statusCalls   []statusCall
	chunkCount    int
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = doc
	return nil
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *repoFake) SetChunkCount(_ context.Context, _ string, count int) error {
	f.chunkCount = count
	return nil
}

type storageFake struct {
	savedKeys []string
	saveErr   error
}

func (f *storageFake) Save(_ context.Context, key string, _ io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedKeys = append(f.savedKeys, key)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	pieces []string
	err    error
}

func (f *chunkerFake) Split(string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pieces, nil
}

type embedderFake struct {
	mu         sync.Mutex
	dim        int
	embedErr   error
	queryErr   error
	embedCalls int
	queryVec   []float32
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(i + 1)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryVec != nil {
		return f.queryVec, nil
	}
	return make([]float32, f.dim), nil
}

func (f *embedderFake) Dimension() int { return f.dim }

type indexFake struct {
	upserted    []domain.DocumentChunk
	upsertRes   domain.UpsertResult
	upsertErr   error
	semantic    []domain.RetrievedChunk
	lexical     []domain.RetrievedChunk
	searchErr   error
	lexicalErr  error
	count       int
	countErr    error
	unindexed   [][]domain.DocumentChunk
	unindexErr  error
	scrollCalls int
}

func (f *indexFake) Upsert(_ context.Context, chunks []domain.DocumentChunk) (domain.UpsertResult, error) {
	if f.upsertErr != nil {
		return domain.UpsertResult{}, f.upsertErr
	}
	f.upserted = append(f.upserted, chunks...)
	if f.upsertRes.Succeeded == 0 && len(f.upsertRes.FailedKeys) == 0 {
		return domain.UpsertResult{Succeeded: len(chunks)}, nil
	}
	return f.upsertRes, nil
}

func (f *indexFake) Search(context.Context, []float32, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.semantic, nil
}

func (f *indexFake) SearchLexical(context.Context, string, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexical, nil
}

func (f *indexFake) CountMatching(context.Context, domain.SearchFilter) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *indexFake) ListUnindexed(context.Context, int) ([]domain.DocumentChunk, error) {
	if f.unindexErr != nil {
		return nil, f.unindexErr
	}
	if f.scrollCalls >= len(f.unindexed) {
		return nil, nil
	}
	page := f.unindexed[f.scrollCalls]
	f.scrollCalls++
	return page, nil
}

type rerankerFake struct {
	top []domain.RetrievedChunk
	err error
}

func (f *rerankerFake) Rerank(_ context.Context, _ string, candidates []domain.RetrievedChunk, topK int) ([]domain.RetrievedChunk, []domain.RetrievedChunk, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.top != nil {
		return f.top, candidates, nil
	}
	if topK > len(candidates) {
		topK = len(candidates)
	}
	return candidates[:topK], candidates, nil
}

type generatorFake struct {
	answer  string
	err     error
	prompts []string
}

func (f *generatorFake) Generate(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type metricsFake struct {
	fallbacks int
	empties   int
}

func (m *metricsFake) RerankFallback() { m.fallbacks++ }
func (m *metricsFake) EmptyResult()    { m.empties++ }
