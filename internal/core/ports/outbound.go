package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/onecore/docintake/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveAnalysis(ctx context.Context, id string, docType domain.DocType, extracted json.RawMessage) error
}

// EventRepository appends to and filters the audit event history.
type EventRepository interface {
	Append(ctx context.Context, event *domain.EventLog) error
	List(ctx context.Context, filter domain.EventFilter) ([]domain.EventLog, error)
}

// CSVFileRepository persists CSV upload metadata together with its rows.
type CSVFileRepository interface {
	Create(ctx context.Context, file *domain.CSVFile, rows []domain.CSVRow) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document analysis jobs.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, documentID string) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document
// (PDF text layer or OCR, chosen by the adapter).
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// CSVValidator runs the structural checks over raw CSV bytes and returns
// the summary plus the parsed rows keyed by header name.
type CSVValidator interface {
	Validate(data []byte) (domain.CSVValidation, []map[string]string, error)
}
