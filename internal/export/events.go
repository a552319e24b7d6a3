// Package export produces XLSX workbooks from the audit event history.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

// Service is a thin façade over the event store that produces XLSX
// bytes for downloads.
type Service struct {
	events ports.EventQueryService
	logger *slog.Logger
}

func NewService(events ports.EventQueryService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{events: events, logger: logger}
}

// EventsXLSX builds a workbook with the filtered event history, newest
// first. Returns ErrDocumentNotFound when the filter matches nothing so
// the handler can answer 404 instead of serving an empty file.
func (s *Service) EventsXLSX(ctx context.Context, filter domain.EventFilter) ([]byte, error) {
	start := time.Now()

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	if len(events) == 0 {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "export events", fmt.Errorf("no events match the filter"))
	}

	f := excelize.NewFile()
	const sheet = "Events"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"ID", "Event Type", "Description", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, event := range events {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, event.ID)
		write(2, event.EventType)
		write(3, event.Description)
		write(4, event.CreatedAt.UTC().Format(time.RFC3339))
	}

	_ = f.SetColWidth(sheet, "B", "B", 16)
	_ = f.SetColWidth(sheet, "C", "C", 80)
	_ = f.SetColWidth(sheet, "D", "D", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("events exported",
		"count", len(events),
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
