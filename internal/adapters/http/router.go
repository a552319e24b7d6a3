package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onecore/docintake/internal/auth"
	"github.com/onecore/docintake/internal/config"
	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
	"github.com/onecore/docintake/internal/observability/metrics"
)

const serviceName = "api"

// maxUploadBytes caps multipart bodies before they reach the usecases.
const maxUploadBytes = 32 << 20

// EventExporter produces the XLSX download for the event history.
type EventExporter interface {
	EventsXLSX(ctx context.Context, filter domain.EventFilter) ([]byte, error)
}

type Router struct {
	cfg      config.Config
	tokens   *auth.Manager
	ingest   ports.DocumentIngestor
	reader   ports.DocumentReader
	csv      ports.CSVIngestor
	events   ports.EventQueryService
	exporter EventExporter
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
}

func NewRouter(
	cfg config.Config,
	tokens *auth.Manager,
	ingest ports.DocumentIngestor,
	reader ports.DocumentReader,
	csv ports.CSVIngestor,
	events ports.EventQueryService,
	exporter EventExporter,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:      cfg,
		tokens:   tokens,
		ingest:   ingest,
		reader:   reader,
		csv:      csv,
		events:   events,
		exporter: exporter,
		metrics:  httpMetrics,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/auth/login", rt.login)
	mux.HandleFunc("/v1/auth/refresh", rt.refresh)
	mux.HandleFunc("/v1/documents", rt.requireRole(auth.RoleUploader, rt.uploadDocument))
	mux.HandleFunc("/v1/documents/", rt.requireRole(auth.RoleUploader, rt.getDocumentByID))
	mux.HandleFunc("/v1/files/csv", rt.requireRole(auth.RoleUploader, rt.uploadCSV))
	mux.HandleFunc("/v1/events", rt.requireRole(auth.RoleUploader, rt.listEvents))
	mux.HandleFunc("/v1/events/export", rt.requireRole(auth.RoleUploader, rt.exportEvents))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 50*time.Millisecond)
	handler = rt.rateLimitMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(rt.accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	Subject     string    `json:"subject"`
}

// login issues a token for an anonymous uploader. No credentials are
// required; the subject identifies the session in audit events.
func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	token, expiresAt, err := rt.tokens.Issue("", auth.RoleUploader)
	if err != nil {
		rt.writeError(w, fmt.Errorf("issue token: %w", err))
		return
	}
	claims, err := rt.tokens.Verify(token)
	if err != nil {
		rt.writeError(w, fmt.Errorf("verify issued token: %w", err))
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordTokenIssued(serviceName, "login")
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        claims.Role,
		Subject:     claims.Subject,
	})
}

// refresh re-issues a token from a valid bearer token. No body.
func (rt *Router) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw, ok := bearerToken(r)
	if !ok {
		rt.writeError(w, domain.WrapError(domain.ErrUnauthorized, "refresh token", errors.New("missing bearer token")))
		return
	}
	token, expiresAt, err := rt.tokens.Refresh(raw)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	claims, err := rt.tokens.Verify(token)
	if err != nil {
		rt.writeError(w, fmt.Errorf("verify issued token: %w", err))
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordTokenIssued(serviceName, "refresh")
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        claims.Role,
		Subject:     claims.Subject,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(r.Context(), ports.UploadInput{
		Filename:    fileHeader.Filename,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
		UploadedBy:  claimsFromContext(r.Context()).Subject,
		Body:        file,
	})
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordDocumentUpload(serviceName, doc.MimeType)
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

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) uploadCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		rt.writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	record, err := rt.csv.UploadCSV(r.Context(), ports.UploadCSVInput{
		Filename:    fileHeader.Filename,
		DatasetName: r.FormValue("dataset_name"),
		Description: r.FormValue("description"),
		UploadedBy:  claimsFromContext(r.Context()).Subject,
		Data:        data,
	})
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordCSVUpload(serviceName, record.Validation.RowCount)
	}

	writeJSON(w, http.StatusCreated, record)
}

func (rt *Router) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := eventFilterFromQuery(r)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	events, err := rt.events.List(r.Context(), filter)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.EventLog{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (rt *Router) exportEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := eventFilterFromQuery(r)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	raw, err := rt.exporter.EventsXLSX(r.Context(), filter)
	if rt.metrics != nil {
		rt.metrics.RecordEventsExport(serviceName, err)
	}
	if err != nil {
		rt.writeError(w, err)
		return
	}

	filename := fmt.Sprintf("events_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func eventFilterFromQuery(r *http.Request) (domain.EventFilter, error) {
	query := r.URL.Query()
	filter := domain.EventFilter{
		EventType:   strings.TrimSpace(query.Get("event_type")),
		Description: strings.TrimSpace(query.Get("description")),
	}

	parse := func(name string) (*time.Time, error) {
		value := strings.TrimSpace(query.Get(name))
		if value == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, value); err == nil {
				return &ts, nil
			}
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse event filter",
			fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD, got %q", name, value))
	}

	var err error
	if filter.From, err = parse("date_from"); err != nil {
		return domain.EventFilter{}, err
	}
	if filter.To, err = parse("date_to"); err != nil {
		return domain.EventFilter{}, err
	}
	return filter, nil
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
