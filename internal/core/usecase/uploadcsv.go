package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

type UploadCSVUseCase struct {
	repo      ports.CSVFileRepository
	events    ports.EventRepository
	storage   ports.ObjectStorage
	validator ports.CSVValidator
}

func NewUploadCSVUseCase(
	repo ports.CSVFileRepository,
	events ports.EventRepository,
	storage ports.ObjectStorage,
	validator ports.CSVValidator,
) *UploadCSVUseCase {
	return &UploadCSVUseCase{
		repo:      repo,
		events:    events,
		storage:   storage,
		validator: validator,
	}
}

// UploadCSV stores the raw file, runs the structural validation and
// persists the file metadata together with every row as JSON, plus the
// audit event.
func (uc *UploadCSVUseCase) UploadCSV(ctx context.Context, in ports.UploadCSVInput) (*domain.CSVFile, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload csv", errors.New("filename is required"))
	}
	if !strings.HasSuffix(strings.ToLower(in.Filename), ".csv") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload csv", errors.New("only .csv files are accepted"))
	}
	if len(in.Data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload csv", errors.New("file is empty"))
	}

	id := uuid.NewString()
	storageKey := "uploads/" + id + ".csv"

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(in.Data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	validation, records, err := uc.validator.Validate(in.Data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate csv", err)
	}

	file := &domain.CSVFile{
		ID:          id,
		Filename:    in.Filename,
		DatasetName: strings.TrimSpace(in.DatasetName),
		Description: strings.TrimSpace(in.Description),
		StoragePath: storageKey,
		UploadedBy:  in.UploadedBy,
		Validation:  validation,
		UploadedAt:  time.Now().UTC(),
	}

	rows := make([]domain.CSVRow, 0, len(records))
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal csv row %d: %w", i+1, err)
		}
		rows = append(rows, domain.CSVRow{
			FileID:    id,
			RowNumber: i + 1,
			Data:      data,
		})
	}

	if err := uc.repo.Create(ctx, file, rows); err != nil {
		return nil, fmt.Errorf("persist csv file: %w", err)
	}

	event := &domain.EventLog{
		EventType: domain.EventUploadCSV,
		Description: fmt.Sprintf("file %s uploaded by user %s (%s), dataset=%q",
			file.Filename, file.UploadedBy, file.StoragePath, file.DatasetName),
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.events.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append upload event: %w", err)
	}

	return file, nil
}
