package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/regtechlab/docrag/internal/core/ports"
	"github.com/regtechlab/docrag/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Router struct {
	ingestor ports.DocumentIngestor
	autofill ports.AutofillService
	reader   ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
	service  string
	log      *slog.Logger
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	autofill ports.AutofillService,
	reader ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
	service string,
	log *slog.Logger,
) *Router {
	return &Router{
		ingestor: ingestor,
		autofill: autofill,
		reader:   reader,
		metrics:  serverMetrics,
		service:  service,
		log:      log,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/autofill", rt.answerAutofill)
	mux.HandleFunc("/v1/rag/query", rt.answerQuery)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	tenantID := strings.TrimSpace(r.FormValue("tenant_id"))
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "form field 'tenant_id' is required")
		return
	}

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		tenantID,
		file,
	)
	if err != nil {
		rt.log.Error("document_upload_failed", "file_name", fileHeader.Filename, "error", err)
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type autofillRequest struct {
	Question     string            `json:"question"`
	OriginalText string            `json:"original_text"`
	TenantID     string            `json:"tenant_id"`
	Field        *domain.FormField `json:"field,omitempty"`
}

func (rt *Router) answerAutofill(w http.ResponseWriter, r *http.Request) {
	rt.serveAnswer(w, r, "/v1/autofill", true)
}

// answerQuery is the free-form variant: same pipeline, no form field, so
// the response carries a prose answer instead of a normalized field value.
func (rt *Router) answerQuery(w http.ResponseWriter, r *http.Request) {
	rt.serveAnswer(w, r, "/v1/rag/query", false)
}

func (rt *Router) serveAnswer(w http.ResponseWriter, r *http.Request, endpoint string, allowField bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req autofillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if !allowField {
		req.Field = nil
	}

	start := time.Now()
	result, err := rt.autofill.Answer(r.Context(), domain.AutofillQuery{
		Question:     req.Question,
		OriginalText: req.OriginalText,
		TenantID:     req.TenantID,
		Field:        req.Field,
	})
	if err != nil {
		rt.log.Error("autofill_failed", "endpoint", endpoint, "error", err)
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(rt.service, endpoint, len(result.References), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
