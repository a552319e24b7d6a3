package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onecore/docintake/internal/auth"
	"github.com/onecore/docintake/internal/config"
	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type ingestFake struct {
	uploadedBy  string
	description string
	err         error
}

func (f *ingestFake) Upload(_ context.Context, in ports.UploadInput) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploadedBy = in.UploadedBy
	f.description = in.Description
	if _, err := io.ReadAll(in.Body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    in.Filename,
		MimeType:    in.MimeType,
		StoragePath: "uploads/doc-1.pdf",
		Status:      domain.StatusUploaded,
		UploadedBy:  in.UploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type readerFake struct {
	doc *domain.Document
	err error
}

func (f *readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	return f.doc, f.err
}

type csvFake struct {
	record *domain.CSVFile
	err    error
}

func (f *csvFake) UploadCSV(_ context.Context, in ports.UploadCSVInput) (*domain.CSVFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type eventsQueryFake struct {
	events []domain.EventLog
	filter domain.EventFilter
	err    error
}

func (f *eventsQueryFake) List(_ context.Context, filter domain.EventFilter) ([]domain.EventLog, error) {
	f.filter = filter
	return f.events, f.err
}

type exporterFake struct {
	raw []byte
	err error
}

func (f *exporterFake) EventsXLSX(context.Context, domain.EventFilter) ([]byte, error) {
	return f.raw, f.err
}

type routerFixture struct {
	router *Router
	tokens *auth.Manager
	ingest *ingestFake
	reader *readerFake
	csv    *csvFake
	events *eventsQueryFake
	export *exporterFake
}

func newFixture(t *testing.T, cfg config.Config) *routerFixture {
	t.Helper()
	tokens, err := auth.NewManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("auth.NewManager() error = %v", err)
	}

	fx := &routerFixture{
		tokens: tokens,
		ingest: &ingestFake{},
		reader: &readerFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusReady}},
		csv:    &csvFake{record: &domain.CSVFile{ID: "csv-1", Filename: "ventas.csv", Validation: domain.CSVValidation{RowCount: 2}}},
		events: &eventsQueryFake{},
		export: &exporterFake{raw: []byte("xlsx-bytes")},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.router = NewRouter(cfg, tokens, fx.ingest, fx.reader, fx.csv, fx.events, fx.export, nil, logger)
	return fx
}

func (fx *routerFixture) bearer(t *testing.T, role string) string {
	t.Helper()
	token, _, err := fx.tokens.Issue("user-7", role)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return "Bearer " + token
}

func multipartBody(t *testing.T, field, filename, contentType, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for k, v := range extra {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestLoginIssuesUploaderToken(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" || resp.Role != auth.RoleUploader {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, err := fx.tokens.Verify(resp.AccessToken); err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
}

func TestRefreshRequiresBearerToken(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRefreshReissuesToken(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Subject != "user-7" || resp.Role != auth.RoleUploader {
		t.Fatalf("unexpected claims: %+v", resp)
	}
}

func TestUploadDocumentRequiresAuth(t *testing.T) {
	fx := newFixture(t, config.Config{})
	body, contentType := multipartBody(t, "file", "factura.pdf", "application/pdf", "%PDF-1.4", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestUploadDocumentRejectsWrongRole(t *testing.T) {
	fx := newFixture(t, config.Config{})
	body, contentType := multipartBody(t, "file", "factura.pdf", "application/pdf", "%PDF-1.4", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", fx.bearer(t, "viewer"))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestUploadDocumentAccepted(t *testing.T) {
	fx := newFixture(t, config.Config{})
	body, contentType := multipartBody(t, "file", "factura.pdf", "application/pdf", "%PDF-1.4",
		map[string]string{"description": "april invoice"})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] != "doc-1" || resp["status"] != string(domain.StatusUploaded) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if fx.ingest.uploadedBy != "user-7" {
		t.Fatalf("uploader not threaded from claims: %q", fx.ingest.uploadedBy)
	}
	if fx.ingest.description != "april invoice" {
		t.Fatalf("description not threaded: %q", fx.ingest.description)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentMapsInvalidInput(t *testing.T) {
	fx := newFixture(t, config.Config{})
	fx.ingest.err = domain.WrapError(domain.ErrInvalidInput, "upload document",
		io.ErrUnexpectedEOF)

	body, contentType := multipartBody(t, "file", "notas.txt", "text/plain", "hola", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentMapsNotFound(t *testing.T) {
	fx := newFixture(t, config.Config{})
	fx.reader.doc = nil
	fx.reader.err = domain.WrapError(domain.ErrDocumentNotFound, "get document", io.EOF)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadCSVReturnsValidationSummary(t *testing.T) {
	fx := newFixture(t, config.Config{})
	body, contentType := multipartBody(t, "file", "ventas.csv", "text/csv", "mes,total\nenero,100\n",
		map[string]string{"dataset_name": "ventas-2024"})
	req := httptest.NewRequest(http.MethodPost, "/v1/files/csv", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	validation, ok := resp["validation"].(map[string]any)
	if !ok || validation["row_count"] != float64(2) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListEventsReturnsEmptyArray(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if body := res.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestListEventsParsesFilters(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodGet,
		"/v1/events?event_type=DOC_ANALYSIS&description=factura&date_from=2024-04-01&date_to=2024-04-30T23:59:59Z", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	filter := fx.events.filter
	if filter.EventType != domain.EventDocAnalysis || filter.Description != "factura" {
		t.Fatalf("filter = %+v", filter)
	}
	if filter.From == nil || filter.From.Format("2006-01-02") != "2024-04-01" {
		t.Fatalf("from = %v", filter.From)
	}
	if filter.To == nil {
		t.Fatalf("to not parsed")
	}
}

func TestListEventsRejectsBadDate(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/events?date_from=yesterday", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestExportEventsSetsDownloadHeaders(t *testing.T) {
	fx := newFixture(t, config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/events/export", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", got)
	}
	if got := res.Header().Get("Content-Disposition"); got == "" {
		t.Fatalf("missing Content-Disposition header")
	}
	if res.Body.String() != "xlsx-bytes" {
		t.Fatalf("body = %q", res.Body.String())
	}
}

func TestExportEventsEmptyHistoryIs404(t *testing.T) {
	fx := newFixture(t, config.Config{})
	fx.export.raw = nil
	fx.export.err = domain.WrapError(domain.ErrDocumentNotFound, "export events", io.EOF)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/export", nil)
	req.Header.Set("Authorization", fx.bearer(t, auth.RoleUploader))
	res := httptest.NewRecorder()
	fx.router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
