package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onecore/docintake/internal/core/analysis"
	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	events    ports.EventRepository
	extractor ports.TextExtractor
	engine    *analysis.Engine
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	events ports.EventRepository,
	extractor ports.TextExtractor,
	engine *analysis.Engine,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		events:    events,
		extractor: extractor,
		engine:    engine,
	}
}

// extractedRecord is the persisted analysis payload: the engine result
// plus the source text it was derived from.
type extractedRecord struct {
	domain.AnalysisResult
	Text string `json:"text"`
}

// ProcessByID runs the analysis pipeline for an uploaded document:
// extract text, run the heuristic engine, persist the result and append
// the audit event. The document ends in status ready or failed.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, result, err := uc.analyzePipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.appendAnalysisEvent(ctx, doc, result.DocType); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) analyzePipeline(ctx context.Context, documentID string) (*domain.Document, domain.AnalysisResult, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, domain.AnalysisResult{}, fmt.Errorf("fetch document by id: %w", err)
	}

	// Empty text is not fatal: the engine degrades it to an empty
	// information record, which is still worth persisting.
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, domain.AnalysisResult{}, fmt.Errorf("extract text: %w", err)
	}

	result := uc.engine.Analyze(text)

	extracted, err := json.Marshal(extractedRecord{AnalysisResult: result, Text: text})
	if err != nil {
		return nil, domain.AnalysisResult{}, fmt.Errorf("marshal analysis result: %w", err)
	}

	if err := uc.repo.SaveAnalysis(ctx, doc.ID, result.DocType, extracted); err != nil {
		return nil, domain.AnalysisResult{}, fmt.Errorf("save analysis: %w", err)
	}

	return doc, result, nil
}

func (uc *ProcessDocumentUseCase) appendAnalysisEvent(ctx context.Context, doc *domain.Document, docType domain.DocType) error {
	event := &domain.EventLog{
		EventType: domain.EventDocAnalysis,
		Description: fmt.Sprintf("document %s (%s) analyzed and stored by user %s (%s)",
			doc.Filename, docType, doc.UploadedBy, doc.StoragePath),
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.events.Append(ctx, event); err != nil {
		return fmt.Errorf("append analysis event: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
