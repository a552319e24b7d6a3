package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/onecore/docintake/internal/core/domain"
)

type CSVRepository struct {
	db *sql.DB
}

func NewCSVRepository(db *sql.DB) *CSVRepository {
	return &CSVRepository{db: db}
}

// Create persists the file metadata and all of its rows in one
// transaction so a half-imported file never becomes visible.
func (r *CSVRepository) Create(ctx context.Context, file *domain.CSVFile, rows []domain.CSVRow) error {
	validationJSON, err := json.Marshal(file.Validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin csv tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO csv_files (id, filename, dataset_name, description, storage_path, uploaded_by, validation, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, file.ID, file.Filename, file.DatasetName, file.Description, file.StoragePath, file.UploadedBy, validationJSON, file.UploadedAt); err != nil {
		return fmt.Errorf("insert csv file: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO csv_rows (file_id, row_number, data)
VALUES ($1,$2,$3)
`)
	if err != nil {
		return fmt.Errorf("prepare csv row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.FileID, row.RowNumber, []byte(row.Data)); err != nil {
			return fmt.Errorf("insert csv row %d: %w", row.RowNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit csv tx: %w", err)
	}
	return nil
}
