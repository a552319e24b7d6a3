package domain

import (
	"encoding/json"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	MimeType    string          `json:"mime_type"`
	Description string          `json:"description,omitempty"`
	StoragePath string          `json:"storage_path"`
	DocType     DocType         `json:"doc_type,omitempty"`
	Extracted   json.RawMessage `json:"extracted,omitempty"`
	Status      DocumentStatus  `json:"status"`
	Error       string          `json:"error,omitempty"`
	UploadedBy  string          `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
