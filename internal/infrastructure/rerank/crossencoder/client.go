package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/regtechlab/docrag/internal/core/domain"
)

// Client scores query/passage pairs against a cross-encoder serving
// endpoint. The endpoint follows the text-embeddings-inference rerank
// contract: one request carries the query and all candidate texts, the
// response maps candidate indexes to relevance scores.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rerankRequest struct {
	Model string   `json:"model,omitempty"`
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.RetrievedChunk, topK int) (top, all []domain.RetrievedChunk, err error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}
	if topK <= 0 {
		topK = len(candidates)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	scores, err := c.score(ctx, rerankRequest{Model: c.model, Query: query, Texts: texts})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrProviderUnavailable, "crossencoder.Rerank", err)
	}

	scored := make([]domain.RetrievedChunk, len(candidates))
	copy(scored, candidates)
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(scored) {
			return nil, nil, fmt.Errorf("crossencoder: score index %d out of range for %d candidates", s.Index, len(scored))
		}
		scored[s.Index].RerankScore = s.Score
	}

	// Stable sort keeps the original retrieval order for tied scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], scored, nil
}

func (c *Client) score(ctx context.Context, payload rerankRequest) ([]rerankScore, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return nil, fmt.Errorf("rerank status: %s", resp.Status)
		}
		return nil, fmt.Errorf("rerank status: %s: %s", resp.Status, msg)
	}

	var scores []rerankScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	return scores, nil
}
