package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/regtechlab/docrag/internal/core/domain"
)

const (
	denseVectorName  = "content"
	sparseVectorName = "lexical"
	upsertBatchSize  = 16
)

// Client stores chunk records in a qdrant collection with a dense named
// vector for semantic search and a sparse named vector for lexical search.
// Point IDs derive deterministically from the chunk ID, so re-indexing a
// document overwrites its previous points instead of duplicating them.
type Client struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
}

func New(baseURL, collection string, dimension int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func pointID(chunkID string) string {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(chunkID)).String()
}

type point struct {
	ID      string         `json:"id"`
	Vector  map[string]any `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, chunks []domain.DocumentChunk) (domain.UpsertResult, error) {
	var result domain.UpsertResult
	if len(chunks) == 0 {
		return result, nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return result, err
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := c.upsertBatch(ctx, batch); err != nil {
			for _, chunk := range batch {
				result.FailedKeys = append(result.FailedKeys, chunk.ChunkID)
			}
			continue
		}
		result.Succeeded += len(batch)
	}
	return result, nil
}

func (c *Client) upsertBatch(ctx context.Context, batch []domain.DocumentChunk) error {
	points := make([]point, 0, len(batch))
	for _, chunk := range batch {
		vectors := map[string]any{
			sparseVectorName: encodeSparseChunk(chunk.Content, chunk.FileName),
		}
		if len(chunk.Embedding) > 0 {
			if len(chunk.Embedding) != c.dimension {
				return domain.WrapError(domain.ErrDimensionMismatch, "qdrant.Upsert",
					fmt.Errorf("chunk %s vector has dimension %d, collection expects %d",
						chunk.ChunkID, len(chunk.Embedding), c.dimension))
			}
			vectors[denseVectorName] = chunk.Embedding
		}
		points = append(points, point{
			ID:     pointID(chunk.ChunkID),
			Vector: vectors,
			Payload: map[string]any{
				"chunk_id":      chunk.ChunkID,
				"content":       chunk.Content,
				"file_name":     chunk.FileName,
				"blob_name":     chunk.BlobName,
				"chunk_index":   chunk.ChunkIndex,
				"company_id":    chunk.TenantID,
				"is_vectorized": len(chunk.Embedding) > 0,
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	k int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": queryVector,
		},
		"limit":        k,
		"with_payload": true,
	}
	if f := tenantFilter(filter); f != nil {
		reqBody["filter"] = f
	}
	return c.search(ctx, reqBody)
}

func (c *Client) SearchLexical(
	ctx context.Context,
	queryText string,
	k int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	sparse := encodeSparseQuery(queryText)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   sparseVectorName,
			"vector": sparse,
		},
		"limit":        k,
		"with_payload": true,
	}
	if f := tenantFilter(filter); f != nil {
		reqBody["filter"] = f
	}
	return c.search(ctx, reqBody)
}

func (c *Client) search(ctx context.Context, reqBody map[string]any) ([]domain.RetrievedChunk, error) {
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievedChunk{
			ChunkID:     payloadString(r.Payload, "chunk_id"),
			Content:     payloadString(r.Payload, "content"),
			FileName:    payloadString(r.Payload, "file_name"),
			BlobName:    payloadString(r.Payload, "blob_name"),
			ChunkIndex:  payloadInt(r.Payload, "chunk_index"),
			TenantID:    payloadString(r.Payload, "company_id"),
			VectorScore: r.Score,
		})
	}
	return out, nil
}

func (c *Client) CountMatching(ctx context.Context, filter domain.SearchFilter) (int, error) {
	reqBody := map[string]any{"exact": true}
	if f := tenantFilter(filter); f != nil {
		reqBody["filter"] = f
	}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/count", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &countResp, "count"); err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) ListUnindexed(ctx context.Context, limit int) ([]domain.DocumentChunk, error) {
	if limit <= 0 {
		limit = 100
	}
	reqBody := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "is_vectorized", "match": map[string]any{"value": false}},
			},
		},
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &scrollResp, "scroll"); err != nil {
		return nil, err
	}

	out := make([]domain.DocumentChunk, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		out = append(out, domain.DocumentChunk{
			ChunkID:    payloadString(p.Payload, "chunk_id"),
			Content:    payloadString(p.Payload, "content"),
			FileName:   payloadString(p.Payload, "file_name"),
			BlobName:   payloadString(p.Payload, "blob_name"),
			ChunkIndex: payloadInt(p.Payload, "chunk_index"),
			TenantID:   payloadString(p.Payload, "company_id"),
		})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensuredCollection {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     c.dimension,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")
	if err != nil {
		// 409 means the collection already exists, which is fine.
		var statusErr *httpStatusError
		if asStatusError(err, &statusErr) && statusErr.statusCode == http.StatusConflict {
			c.ensuredCollection = true
			return nil
		}
		return err
	}
	c.ensuredCollection = true
	return nil
}

type httpStatusError struct {
	operation  string
	statusCode int
	status     string
	body       string
}

func (e *httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.operation, e.status, e.body)
}

func asStatusError(err error, target **httpStatusError) bool {
	se, ok := err.(*httpStatusError)
	if ok {
		*target = se
	}
	return ok
}

func (c *Client) do(ctx context.Context, method, url string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			operation:  operation,
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func tenantFilter(filter domain.SearchFilter) map[string]any {
	if filter.TenantID == "" {
		return nil
	}
	return map[string]any{
		"must": []map[string]any{
			{"key": "company_id", "match": map[string]any{"value": filter.TenantID}},
		},
	}
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
