package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/infrastructure/resilience"
)

// Client talks to the Gemini REST API. Requests are rate limited and
// wrapped in the shared retry/breaker executor; the API key rotates
// after every failed attempt so a quota-exhausted key does not stall
// the whole pipeline.
type Client struct {
	baseURL    string
	embedModel string
	genModel   string
	dimension  int
	rotator    *KeyRotator
	limiter    *rate.Limiter
	executor   *resilience.Executor
	httpClient *http.Client
}

type Options struct {
	BaseURL           string
	EmbedModel        string
	GenerateModel     string
	Dimension         int
	APIKeys           []string
	RequestsPerSecond float64
	Timeout           time.Duration
}

func New(opts Options, executor *resilience.Executor) (*Client, error) {
	rotator, err := NewKeyRotator(opts.APIKeys)
	if err != nil {
		return nil, err
	}
	if opts.Dimension <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "gemini.New",
			fmt.Errorf("embedding dimension must be positive, got %d", opts.Dimension))
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		embedModel: opts.EmbedModel,
		genModel:   opts.GenerateModel,
		dimension:  opts.Dimension,
		rotator:    rotator,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		executor:   executor,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	wrapped := func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && c.rotator.Len() > 1 {
			c.rotator.Rotate()
		}
		return err
	}
	err := c.executor.Execute(ctx, operation, wrapped, classifyGeminiError)
	return wrapTemporaryIfNeeded(operation, err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Dimension() int {
	return e.client.dimension
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
	}
	type embedRequest struct {
		Model   string  `json:"model"`
		Content content `json:"content"`
	}

	modelPath := "models/" + e.client.embedModel
	request := struct {
		Requests []embedRequest `json:"requests"`
	}{}
	for _, text := range texts {
		request.Requests = append(request.Requests, embedRequest{
			Model:   modelPath,
			Content: content{Parts: []part{{Text: text}}},
		})
	}

	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}

	err := e.client.execute(ctx, "gemini_embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/v1beta/"+modelPath+":batchEmbedContents", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}

	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "gemini_embed",
			fmt.Errorf("requested %d embeddings, got %d", len(texts), len(response.Embeddings)))
	}

	vectors := make([][]float32, len(response.Embeddings))
	for i, emb := range response.Embeddings {
		if len(emb.Values) != e.client.dimension {
			return nil, domain.WrapError(domain.ErrDimensionMismatch, "gemini_embed",
				fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(emb.Values), e.client.dimension))
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := "/v1beta/models/" + g.client.genModel + ":generateContent"
	err := g.client.execute(ctx, "gemini_generate", func(ctx context.Context) error {
		return g.client.postJSON(ctx, path, request, &response, "generate")
	})
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate: empty candidate list")
	}

	var sb strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
