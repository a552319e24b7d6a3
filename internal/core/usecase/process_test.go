package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/onecore/docintake/internal/core/analysis"
	"github.com/onecore/docintake/internal/core/domain"
)

type statusCall struct {
	status  domain.DocumentStatus
	message string
}

type processRepoFake struct {
	doc         *domain.Document
	getErr      error
	saveErr     error
	statusErr   error
	statusCalls []statusCall
	savedType   domain.DocType
	savedJSON   json.RawMessage
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, message string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, statusCall{status: status, message: message})
	return nil
}

func (f *processRepoFake) SaveAnalysis(_ context.Context, _ string, docType domain.DocType, extracted json.RawMessage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedType = docType
	f.savedJSON = extracted
	return nil
}

type eventsFake struct {
	appended  []domain.EventLog
	appendErr error
}

func (f *eventsFake) Append(_ context.Context, event *domain.EventLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *event)
	return nil
}

func (f *eventsFake) List(context.Context, domain.EventFilter) ([]domain.EventLog, error) {
	return nil, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

func storedDocument() *domain.Document {
	return &domain.Document{
		ID:          "doc-1",
		Filename:    "factura.pdf",
		MimeType:    "application/pdf",
		StoragePath: "uploads/doc-1.pdf",
		Status:      domain.StatusUploaded,
		UploadedBy:  "user-7",
	}
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: storedDocument()}
	events := &eventsFake{}
	extractor := &extractorFake{text: "Factura\nSubtotal: 100\nTotal: 1.308,8"}
	uc := NewProcessDocumentUseCase(repo, events, extractor, analysis.New(analysis.DefaultConfig()))

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status updates, got %v", repo.statusCalls)
	}
	if repo.statusCalls[0].status != domain.StatusProcessing {
		t.Fatalf("first status = %q, want processing", repo.statusCalls[0].status)
	}
	if repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("final status = %q, want ready", repo.statusCalls[1].status)
	}

	if repo.savedType != domain.DocTypeInvoice {
		t.Fatalf("saved doc type = %q, want invoice", repo.savedType)
	}
	var record struct {
		DocType string `json:"doc_type"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(repo.savedJSON, &record); err != nil {
		t.Fatalf("persisted payload is not valid JSON: %v", err)
	}
	if record.DocType != "invoice" || record.Text != extractor.text {
		t.Fatalf("persisted record = %+v", record)
	}

	if len(events.appended) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events.appended))
	}
	event := events.appended[0]
	if event.EventType != domain.EventDocAnalysis {
		t.Fatalf("event type = %q, want %q", event.EventType, domain.EventDocAnalysis)
	}
	for _, part := range []string{"factura.pdf", "invoice", "user-7", "uploads/doc-1.pdf"} {
		if !strings.Contains(event.Description, part) {
			t.Errorf("event description %q missing %q", event.Description, part)
		}
	}
}

func TestProcessByIDEmptyTextStillSucceeds(t *testing.T) {
	repo := &processRepoFake{doc: storedDocument()}
	events := &eventsFake{}
	uc := NewProcessDocumentUseCase(repo, events, &extractorFake{text: ""}, analysis.New(analysis.DefaultConfig()))

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.savedType != domain.DocTypeInformation {
		t.Fatalf("saved doc type = %q, want information", repo.savedType)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusReady {
		t.Fatalf("final status = %q, want ready", last.status)
	}
}

func TestProcessByIDExtractorFailureMarksFailed(t *testing.T) {
	repo := &processRepoFake{doc: storedDocument()}
	events := &eventsFake{}
	uc := NewProcessDocumentUseCase(repo, events, &extractorFake{err: errors.New("tesseract exited 1")}, analysis.New(analysis.DefaultConfig()))

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %q, want failed", last.status)
	}
	if !strings.Contains(last.message, "tesseract") {
		t.Fatalf("failure message %q should carry the cause", last.message)
	}
	if len(events.appended) != 0 {
		t.Fatalf("no audit event expected on failure, got %v", events.appended)
	}
}

func TestProcessByIDSaveFailureMarksFailed(t *testing.T) {
	repo := &processRepoFake{doc: storedDocument(), saveErr: errors.New("connection refused")}
	uc := NewProcessDocumentUseCase(repo, &eventsFake{}, &extractorFake{text: "hola"}, analysis.New(analysis.DefaultConfig()))

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "save analysis") {
		t.Fatalf("expected save error, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %q, want failed", last.status)
	}
}

func TestProcessByIDEventFailureMarksFailed(t *testing.T) {
	repo := &processRepoFake{doc: storedDocument()}
	events := &eventsFake{appendErr: errors.New("insert failed")}
	uc := NewProcessDocumentUseCase(repo, events, &extractorFake{text: "hola"}, analysis.New(analysis.DefaultConfig()))

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "append analysis event") {
		t.Fatalf("expected event error, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("final status = %q, want failed", last.status)
	}
}
