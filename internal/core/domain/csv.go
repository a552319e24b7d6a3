package domain

import (
	"encoding/json"
	"time"
)

// CSVFile is the metadata row stored for every accepted CSV upload.
type CSVFile struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	DatasetName string        `json:"dataset_name"`
	Description string        `json:"description"`
	StoragePath string        `json:"storage_path"`
	UploadedBy  string        `json:"uploaded_by"`
	Validation  CSVValidation `json:"validation"`
	UploadedAt  time.Time     `json:"uploaded_at"`
}

// CSVRow preserves one source row as JSON, keyed by header names.
type CSVRow struct {
	FileID    string          `json:"file_id"`
	RowNumber int             `json:"row_number"`
	Data      json.RawMessage `json:"data"`
}

// CSVValidation summarizes structural checks over an uploaded CSV:
// rows with empty values and fully duplicated rows.
type CSVValidation struct {
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns"`
	Issues   []string `json:"issues"`
}
