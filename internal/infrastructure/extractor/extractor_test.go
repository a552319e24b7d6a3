package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/onecore/docintake/internal/core/domain"
)

type storageFake struct {
	content string
	openErr error
}

func (f *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type resolverFake struct {
	path string
	err  error
}

func (f *resolverFake) Path(string) (string, error) { return f.path, f.err }

type runnerFake struct {
	stdout []byte
	stderr []byte
	err    error

	name string
	args []string
}

func (f *runnerFake) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return f.stdout, f.stderr, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractImageRunsTesseract(t *testing.T) {
	runner := &runnerFake{stdout: []byte("Factura\nTotal: 100\n")}
	e := NewWithRunner(Config{}, &storageFake{}, &resolverFake{path: "/data/uploads/doc-1.png"}, runner, discardLogger())

	doc := &domain.Document{ID: "doc-1", StoragePath: "uploads/doc-1.png"}
	text, err := e.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Factura\nTotal: 100\n" {
		t.Fatalf("text = %q", text)
	}
	if runner.name != "tesseract" {
		t.Fatalf("command = %q, want tesseract", runner.name)
	}
	want := []string{"/data/uploads/doc-1.png", "stdout", "-l", "spa+eng"}
	if len(runner.args) != len(want) {
		t.Fatalf("args = %v, want %v", runner.args, want)
	}
	for i := range want {
		if runner.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", runner.args, want)
		}
	}
}

func TestExtractImageHonorsConfiguredCommand(t *testing.T) {
	runner := &runnerFake{stdout: []byte("ok")}
	cfg := Config{TesseractCmd: "/opt/tesseract/bin/tesseract", TesseractLang: "spa"}
	e := NewWithRunner(cfg, &storageFake{}, &resolverFake{path: "/data/x.jpg"}, runner, discardLogger())

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "uploads/x.jpg"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if runner.name != "/opt/tesseract/bin/tesseract" {
		t.Fatalf("command = %q", runner.name)
	}
	if runner.args[3] != "spa" {
		t.Fatalf("lang arg = %q, want spa", runner.args[3])
	}
}

func TestExtractImageWrapsCommandFailure(t *testing.T) {
	runner := &runnerFake{stderr: []byte("Error opening data file"), err: errors.New("exit status 1")}
	e := NewWithRunner(Config{}, &storageFake{}, &resolverFake{path: "/data/x.png"}, runner, discardLogger())

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "uploads/x.png"})
	if err == nil || !strings.Contains(err.Error(), "tesseract") {
		t.Fatalf("expected tesseract error, got %v", err)
	}
}

func TestExtractRejectsUnknownExtension(t *testing.T) {
	e := NewWithRunner(Config{}, &storageFake{}, &resolverFake{}, &runnerFake{}, discardLogger())

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "uploads/x.docx"})
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestExtractPDFPropagatesOpenError(t *testing.T) {
	e := NewWithRunner(Config{}, &storageFake{openErr: errors.New("no such file")}, &resolverFake{}, &runnerFake{}, discardLogger())

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "uploads/x.pdf"})
	if err == nil || !strings.Contains(err.Error(), "open source document") {
		t.Fatalf("expected open error, got %v", err)
	}
}
