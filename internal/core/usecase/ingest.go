package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the source object, records the document metadata and
// enqueues it for asynchronous analysis.
func (uc *IngestDocumentUseCase) Upload(ctx context.Context, in ports.UploadInput) (*domain.Document, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("filename is required"))
	}
	if _, ok := allowedMimeTypes[normalizeMimeType(in.MimeType)]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("unsupported content type %q: only PDF, JPG and PNG are accepted", in.MimeType))
	}

	id := uuid.NewString()
	storageKey := "uploads/" + id + storageExt(in.Filename)
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, in.Body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    in.Filename,
		MimeType:    normalizeMimeType(in.MimeType),
		Description: strings.TrimSpace(in.Description),
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		UploadedBy:  in.UploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishAnalysisRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish analysis job: %w", err)
	}

	return doc, nil
}

func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	// Strip parameters such as "; charset=binary".
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

func storageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ".bin"
	}
	return ext
}
