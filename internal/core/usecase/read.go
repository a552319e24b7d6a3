package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

// ReadDocumentUseCase exposes the stored document state to the API.
type ReadDocumentUseCase struct {
	repo ports.DocumentRepository
}

func NewReadDocumentUseCase(repo ports.DocumentRepository) *ReadDocumentUseCase {
	return &ReadDocumentUseCase{repo: repo}
}

func (uc *ReadDocumentUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", errors.New("id is required"))
	}
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

// QueryEventsUseCase reads the filtered audit event history.
type QueryEventsUseCase struct {
	events ports.EventRepository
}

func NewQueryEventsUseCase(events ports.EventRepository) *QueryEventsUseCase {
	return &QueryEventsUseCase{events: events}
}

func (uc *QueryEventsUseCase) List(ctx context.Context, filter domain.EventFilter) ([]domain.EventLog, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list events", errors.New("date range is inverted"))
	}
	events, err := uc.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
