package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caseward/evidence-intake/internal/core/domain"
	"github.com/caseward/evidence-intake/internal/core/ports"
)

// Router is the thin HTTP surface over the intake queue. Upload parsing,
// auth and size limits live here; everything stateful lives in the queue.
type Router struct {
	intake  ports.EvidenceIntake
	status  ports.StatusReader
	events  ports.TransitionSource
	metrics http.Handler

	rateLimitRPS   int
	rateLimitBurst int
	maxConcurrent  int
	maxUploadBytes int64
}

type RouterOptions struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxConcurrent  int
	MaxUploadBytes int64
	Metrics        http.Handler
}

func NewRouter(intake ports.EvidenceIntake, status ports.StatusReader, events ports.TransitionSource, opts RouterOptions) *Router {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Router{
		intake:         intake,
		status:         status,
		events:         events,
		metrics:        opts.Metrics,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
		maxConcurrent:  opts.MaxConcurrent,
		maxUploadBytes: maxUpload,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/cases/", rt.caseRoutes)
	mux.HandleFunc("/v1/evidence/", rt.evidenceRoutes)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxConcurrent, 2*time.Second, isEventStream)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// isEventStream matches the SSE routes that stay open for the client's whole
// session.
func isEventStream(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/v1/cases/") && strings.HasSuffix(r.URL.Path, "/events")
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caseRoutes dispatches /v1/cases/{caseID}/{evidence|status|events}.
func (rt *Router) caseRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/cases/")
	caseID, action, _ := strings.Cut(rest, "/")
	if caseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "case id is required"})
		return
	}

	switch action {
	case "evidence":
		rt.submitBatch(w, r, caseID)
	case "status":
		rt.caseStatus(w, r, caseID)
	case "events":
		rt.caseEvents(w, r, caseID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown case resource"})
	}
}

// submitBatch accepts a multipart batch: repeated "files" parts plus optional
// "direct_upload" and "source_url" fields carrying provenance hints for the
// whole batch.
func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request, caseID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	hints := domain.UploadHints{
		DirectUpload: parseBool(r.FormValue("direct_upload")),
		SourceURL:    strings.TrimSpace(r.FormValue("source_url")),
	}

	batch := make([]domain.SubmitInput, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file part"})
			return
		}
		content, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file part"})
			return
		}
		batch = append(batch, domain.SubmitInput{
			Filename: header.Filename,
			Content:  content,
			Hints:    hints,
		})
	}

	ids, err := rt.intake.Submit(r.Context(), caseID, batch)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"item_ids": ids})
}

func (rt *Router) caseStatus(w http.ResponseWriter, r *http.Request, caseID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.status.Status(caseID))
}

func (rt *Router) evidenceRoutes(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimPrefix(r.URL.Path, "/v1/evidence/")
	if itemID == "" || strings.Contains(itemID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "evidence item id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := rt.status.GetItem(itemID)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": rt.intake.Cancel(itemID)})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
