package ports

import (
	"context"
	"io"

	"github.com/onecore/docintake/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)
}

// UploadInput carries one multipart document upload.
type UploadInput struct {
	Filename    string
	MimeType    string
	Description string
	UploadedBy  string
	Body        io.Reader
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document analysis.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// CSVIngestor is the inbound contract for CSV upload and validation.
type CSVIngestor interface {
	UploadCSV(ctx context.Context, in UploadCSVInput) (*domain.CSVFile, error)
}

// UploadCSVInput carries one CSV upload.
type UploadCSVInput struct {
	Filename    string
	DatasetName string
	Description string
	UploadedBy  string
	Data        []byte
}

// EventQueryService reads the filtered event history.
type EventQueryService interface {
	List(ctx context.Context, filter domain.EventFilter) ([]domain.EventLog, error)
}
