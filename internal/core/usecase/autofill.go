package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/core/ports"
	"github.com/regtechlab/docrag/internal/core/prompt"
)

var citationMarkerRe = regexp.MustCompile(`\[doc\d+\]`)

// DefaultNoInfoPhrases is the fallback phrase list used to detect answers
// that verbosely say "nothing found" instead of returning the sentinel.
// English only; deployments generating in other languages should extend it
// via configuration.
var DefaultNoInfoPhrases = []string{
	"Please try another query or topic",
	"This information is not specified",
	"not specified in the available documents",
	"not available in the documents",
	"not specified in the documents",
}

// AutofillConfig tunes one pipeline instance.
type AutofillConfig struct {
	RecallK       int
	TopK          int
	RRFK          int
	HybridEnabled bool
	Temperature   float64
	MaxTokens     int
	NoInfoPhrases []string
}

func (c AutofillConfig) normalize() AutofillConfig {
	out := c
	if out.RecallK <= 0 {
		out.RecallK = 30
	}
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 2048
	}
	if len(out.NoInfoPhrases) == 0 {
		out.NoInfoPhrases = DefaultNoInfoPhrases
	}
	return out
}

// PipelineMetrics receives pipeline-level quality signals. Implementations
// must be safe for concurrent use.
type PipelineMetrics interface {
	RerankFallback()
	EmptyResult()
}

type nopPipelineMetrics struct{}

func (nopPipelineMetrics) RerankFallback() {}
func (nopPipelineMetrics) EmptyResult()    {}

// AutofillUseCase runs the retrieval pipeline for one question: embed the
// query, recall a broad candidate set, rerank it down to the prompt
// context, generate, then normalize the answer. A degraded reranker never
// fails the query; the pipeline falls back to retrieval order.
type AutofillUseCase struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	reranker  ports.Reranker
	generator ports.Generator
	cfg       AutofillConfig
	log       *slog.Logger
	metrics   PipelineMetrics
}

func NewAutofillUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	reranker ports.Reranker,
	generator ports.Generator,
	cfg AutofillConfig,
	log *slog.Logger,
	metrics PipelineMetrics,
) *AutofillUseCase {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = nopPipelineMetrics{}
	}
	return &AutofillUseCase{
		embedder:  embedder,
		index:     index,
		reranker:  reranker,
		generator: generator,
		cfg:       cfg.normalize(),
		log:       log,
		metrics:   metrics,
	}
}

func (uc *AutofillUseCase) Answer(ctx context.Context, query domain.AutofillQuery) (*domain.AutofillResult, error) {
	if strings.TrimSpace(query.Question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "autofill", fmt.Errorf("question is empty"))
	}
	if query.Field != nil {
		if err := query.Field.Validate(); err != nil {
			return nil, err
		}
	}
	filter := domain.SearchFilter{TenantID: query.TenantID}

	// A tenant without any indexed chunks short-circuits before spending a
	// generation call.
	count, err := uc.index.CountMatching(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count indexed chunks: %w", err)
	}
	if count == 0 {
		uc.metrics.EmptyResult()
		return domain.EmptyResult(), nil
	}

	question := query.EnhancedQuestion()
	candidates, err := uc.retrieve(ctx, question, filter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		uc.metrics.EmptyResult()
		return domain.EmptyResult(), nil
	}

	top := uc.rerank(ctx, question, candidates)

	promptText := uc.buildPrompt(query, top)
	raw, err := uc.generator.Generate(ctx, promptText, uc.cfg.Temperature, uc.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return uc.postprocess(query, raw, top), nil
}

func (uc *AutofillUseCase) retrieve(ctx context.Context, question string, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	semantic, err := uc.index.Search(ctx, queryVector, uc.cfg.RecallK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if !uc.cfg.HybridEnabled {
		return semantic, nil
	}

	lexical, err := uc.index.SearchLexical(ctx, question, uc.cfg.RecallK, filter)
	if err != nil {
		// Lexical recall is an additive signal; losing it degrades, not fails.
		uc.log.Warn("lexical_search_failed", "error", err)
		return semantic, nil
	}
	return trimCandidates(fuseCandidatesRRF(semantic, lexical, uc.cfg.RRFK), uc.cfg.RecallK), nil
}

func (uc *AutofillUseCase) rerank(ctx context.Context, question string, candidates []domain.RetrievedChunk) []domain.RetrievedChunk {
	top, _, err := uc.reranker.Rerank(ctx, question, candidates, uc.cfg.TopK)
	if err != nil {
		uc.log.Warn("rerank_degraded_falling_back_to_vector_order", "error", err, "candidates", len(candidates))
		uc.metrics.RerankFallback()
		return trimCandidates(candidates, uc.cfg.TopK)
	}
	return top
}

func (uc *AutofillUseCase) buildPrompt(query domain.AutofillQuery, top []domain.RetrievedChunk) string {
	documentContext := prompt.BuildContext(top)
	if query.Field != nil {
		return prompt.BuildFieldPrompt(query.Field, documentContext, query.Question)
	}
	return prompt.BuildAutofillPrompt(query.EnhancedQuestion(), documentContext)
}

func (uc *AutofillUseCase) postprocess(query domain.AutofillQuery, raw string, top []domain.RetrievedChunk) *domain.AutofillResult {
	answer := strings.TrimSpace(citationMarkerRe.ReplaceAllString(raw, ""))

	if answer == "" || uc.matchesNoInfo(answer) {
		uc.metrics.EmptyResult()
		return domain.EmptyResult()
	}

	isCheckbox := query.Field != nil && query.Field.Type == domain.FieldCheckbox
	parsed, selections := prompt.ParseFieldResponse(answer, isCheckbox)
	if isCheckbox {
		if len(selections) == 0 {
			uc.metrics.EmptyResult()
			return domain.EmptyResult()
		}
		result := uc.attachSources(&domain.AutofillResult{Selections: selections}, top)
		return result
	}
	if parsed == "" {
		uc.metrics.EmptyResult()
		return domain.EmptyResult()
	}

	return uc.attachSources(&domain.AutofillResult{Answer: parsed}, top)
}

// attachSources builds references and score records from the same reranked
// set that fed the prompt, deduplicating references per source file.
func (uc *AutofillUseCase) attachSources(result *domain.AutofillResult, top []domain.RetrievedChunk) *domain.AutofillResult {
	result.References = make([]domain.SourceReference, 0, len(top))
	result.Chunks = make([]domain.ChunkScore, 0, len(top))

	type fileKey struct{ blob, file string }
	seen := make(map[fileKey]struct{}, len(top))

	for _, chunk := range top {
		if chunk.ChunkID != "" {
			result.Chunks = append(result.Chunks, domain.ChunkScore{
				ID:         chunk.ChunkID,
				Score:      chunk.Score(),
				ChunkIndex: chunk.ChunkIndex,
			})
		}
		if chunk.BlobName == "" || chunk.FileName == "" {
			continue
		}
		key := fileKey{chunk.BlobName, chunk.FileName}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.References = append(result.References, domain.SourceReference{
			BlobName: chunk.BlobName,
			FileName: chunk.FileName,
		})
	}
	return result
}

func (uc *AutofillUseCase) matchesNoInfo(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range uc.cfg.NoInfoPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
