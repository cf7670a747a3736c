package loader

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"pdfchat/internal/domain"
)

// Extension returns the file extension used for transient files of the given kind.
func Extension(kind string) (string, error) {
	switch kind {
	case domain.PDFKind:
		return ".pdf", nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}
}

// FileLoader reads documents from disk according to their declared kind.
type FileLoader struct{}

func NewFileLoader() *FileLoader { return &FileLoader{} }

// Load extracts plain text. Every failure wraps domain.ErrIngestion.
func (l *FileLoader) Load(path, kind string) (domain.Document, error) {
	switch kind {
	case domain.PDFKind:
		text, err := readPDF(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %s: %v", domain.ErrIngestion, filepath.Base(path), err)
		}
		if strings.TrimSpace(text) == "" {
			return domain.Document{}, fmt.Errorf("%w: %s: no text extracted from pdf", domain.ErrIngestion, filepath.Base(path))
		}
		return domain.Document{
			ID:      uuid.NewString(),
			Name:    filepath.Base(path),
			Path:    path,
			Content: text,
		}, nil
	default:
		return domain.Document{}, fmt.Errorf("%w: %v: %q", domain.ErrIngestion, domain.ErrUnsupportedKind, kind)
	}
}

// readPDF returns the plain text of every page. The pdf package panics on some
// malformed streams, so panics are turned into errors.
func readPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
