package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event *domain.EventLog) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO events (event_type, description, created_at)
VALUES ($1, $2, $3)
RETURNING id
`, event.EventType, event.Description, event.CreatedAt)

	if err := row.Scan(&event.ID); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns events newest first. All filter fields are optional and
// combined with AND; the description filter is a case-insensitive
// substring match.
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.EventLog, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.EventType != "" {
		addCondition("event_type = $%d", filter.EventType)
	}
	if filter.Description != "" {
		addCondition("description ILIKE $%d", "%"+filter.Description+"%")
	}
	if filter.From != nil {
		addCondition("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("created_at <= $%d", *filter.To)
	}

	query := `SELECT id, event_type, description, created_at FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.EventLog
	for rows.Next() {
		var event domain.EventLog
		if err := rows.Scan(&event.ID, &event.EventType, &event.Description, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
