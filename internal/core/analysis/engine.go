// Package analysis implements the heuristic document-analysis engine:
// keyword classification, labeled-field extraction and line-item parsing
// over noisy OCR/PDF text. Every operation is a pure function of its
// input text; nothing here performs I/O or returns an error. Extraction
// degrades to empty values because partial output is more useful to the
// caller than a failed request.
package analysis

import "github.com/onecore/docintake/internal/core/domain"

type Config struct {
	// QuantityTolerance is the accepted distance between total/unit_price
	// and its nearest integer when recovering a missing quantity.
	QuantityTolerance float64
	// QuantityMax caps inferred quantities; ratios above it are rejected.
	QuantityMax int
}

func DefaultConfig() Config {
	return Config{
		QuantityTolerance: 0.05,
		QuantityMax:       10000,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.QuantityTolerance <= 0 {
		out.QuantityTolerance = def.QuantityTolerance
	}
	if out.QuantityMax <= 0 {
		out.QuantityMax = def.QuantityMax
	}
	return out
}

// Engine bundles the configurable knobs of the heuristics. It is
// stateless after construction and safe for concurrent use.
type Engine struct {
	cfg      Config
	matchers []lineMatcher
}

func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg.normalize()}
	// Priority order matters: the noise-tolerant tagged pattern must run
	// before the generic tabular one, or it would lose ambiguous lines to
	// it; the no-quantity variant is the degraded fallback.
	e.matchers = []lineMatcher{
		taggedWithQuantity{},
		genericTabular{},
		taggedWithoutQuantity{engine: e},
	}
	return e
}

// Analyze classifies the text and produces the matching record:
// invoice texts get labeled fields plus parsed line items, everything
// else gets a description, a short summary and a sentiment label.
func (e *Engine) Analyze(text string) domain.AnalysisResult {
	docType := Classify(text)

	result := domain.AnalysisResult{
		DocType:       docType,
		Kind:          string(docType),
		RawTextLength: len(text),
	}

	if docType == domain.DocTypeInvoice {
		fields := e.ExtractInvoiceFields(text)
		result.InvoiceFields = &fields
		return result
	}

	result.InformationFields = &domain.InformationFields{
		Description: describe(text, 200),
		Summary:     Summarize(text, 3),
		Sentiment:   SentimentOf(text),
	}
	return result
}
