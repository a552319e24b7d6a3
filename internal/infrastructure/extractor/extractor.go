// Package extractor turns stored documents into plain text: the PDF
// text layer for PDFs, tesseract OCR for images.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
	"github.com/onecore/docintake/internal/core/ports"
)

// PathResolver maps a storage key to an on-disk location the OCR
// command can read directly.
type PathResolver interface {
	Path(key string) (string, error)
}

type Config struct {
	TesseractCmd  string
	TesseractLang string
}

func (c Config) normalize() Config {
	if c.TesseractCmd == "" {
		c.TesseractCmd = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "spa+eng"
	}
	return c
}

type Extractor struct {
	cfg      Config
	storage  ports.ObjectStorage
	resolver PathResolver
	runner   Runner
	logger   *slog.Logger
}

func New(cfg Config, storage ports.ObjectStorage, resolver PathResolver, logger *slog.Logger) *Extractor {
	return NewWithRunner(cfg, storage, resolver, execRunner{}, logger)
}

func NewWithRunner(cfg Config, storage ports.ObjectStorage, resolver PathResolver, runner Runner, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:      cfg.normalize(),
		storage:  storage,
		resolver: resolver,
		runner:   runner,
		logger:   logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	switch strings.ToLower(path.Ext(doc.StoragePath)) {
	case ".pdf":
		return e.extractPDF(ctx, doc)
	case ".jpg", ".jpeg", ".png":
		return e.extractImage(ctx, doc)
	default:
		return "", fmt.Errorf("no extractor for %q", doc.StoragePath)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	text, err := pdfText(ctx, reader)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("pdf has no text layer", "document_id", doc.ID, "filename", doc.Filename)
	}
	return text, nil
}

func (e *Extractor) extractImage(ctx context.Context, doc *domain.Document) (string, error) {
	filePath, err := e.resolver.Path(doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.TesseractCmd, filePath, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		e.logger.Error("tesseract failed",
			"document_id", doc.ID,
			"error", err,
			"stderr", truncate(string(errb), 8<<10),
		)
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
