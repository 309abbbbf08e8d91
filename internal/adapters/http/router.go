package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/core/ports"
	"github.com/daxmodi1/ShikshaMitra/internal/observability/metrics"
)

const maxVoiceUploadBytes = 25 << 20

type Router struct {
	service   string
	assistant ports.AssistantService
	ingestor  ports.DocumentIngestor
	repo      ports.DocumentRepository
	exchanges ports.ExchangeStore
	metrics   *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
}

type RouterOptions struct {
	Service        string
	Assistant      ports.AssistantService
	Ingestor       ports.DocumentIngestor
	Repo           ports.DocumentRepository
	Exchanges      ports.ExchangeStore
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
}

func NewRouter(options RouterOptions) *Router {
	service := options.Service
	if service == "" {
		service = "api"
	}
	return &Router{
		service:        service,
		assistant:      options.Assistant,
		ingestor:       options.Ingestor,
		repo:           options.Repo,
		exchanges:      options.Exchanges,
		metrics:        options.Metrics,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxInFlight:    options.MaxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query/text", rt.queryText)
	mux.HandleFunc("/v1/query/voice", rt.queryVoice)
	mux.HandleFunc("/v1/sessions/", rt.resetSession)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/analytics/", rt.getAnalytics)

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, time.Second)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) queryText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		TeacherID string `json:"teacher_id"`
		Query     string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	resp, err := rt.assistant.AnswerText(r.Context(), req.SessionID, req.TeacherID, req.Query, domain.SourceTypeText)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.recordAssistant(resp, domain.SourceTypeText, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) queryVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceUploadBytes)
	file, fileHeader, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'audio' is required"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read audio payload"})
		return
	}

	start := time.Now()
	resp, err := rt.assistant.AnswerVoice(
		r.Context(),
		r.FormValue("session_id"),
		r.FormValue("teacher_id"),
		audio,
		fileHeader.Filename,
	)
	if err != nil {
		if rt.metrics != nil && domain.IsKind(err, domain.ErrTranscription) {
			rt.metrics.RecordTranscriptionFailure(rt.service)
		}
		rt.writeError(w, err)
		return
	}
	rt.recordAssistant(resp, domain.SourceTypeVoice, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) resetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	sessionID, ok := strings.CutSuffix(rest, "/reset")
	if !ok || sessionID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if err := rt.assistant.ResetSession(r.Context(), sessionID); err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "status": "reset"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return
		}
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) getAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	crpID := strings.TrimPrefix(r.URL.Path, "/v1/analytics/")
	if crpID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "crp id is required"})
		return
	}

	analytics, err := rt.exchanges.AnalyticsForCRP(r.Context(), crpID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (rt *Router) recordAssistant(resp *domain.AssistantResponse, sourceType string, duration time.Duration) {
	if rt.metrics == nil || resp == nil {
		return
	}
	rt.metrics.RecordAssistantObservation(rt.service, sourceType, len(resp.Sources), resp.FallbackUsed, resp.Answer.IsFallback(), duration)
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
