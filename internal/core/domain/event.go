package domain

import "time"

const (
	EventDocAnalysis = "DOC_ANALYSIS"
	EventUploadCSV   = "UPLOAD_CSV"
)

type EventLog struct {
	ID          int64     `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventFilter narrows event history queries. Zero values mean "no filter".
type EventFilter struct {
	EventType   string
	Description string
	From        *time.Time
	To          *time.Time
}
