package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pdfchat/internal/domain"
	"pdfchat/internal/loader"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Bridge hands uploaded bytes to a session through a transient file.
type Bridge struct {
	tempDir string
}

// NewBridge writes transient files under dir, or the OS temp dir when empty.
func NewBridge(dir string) *Bridge {
	return &Bridge{tempDir: dir}
}

// IngestUpload writes blob to a uniquely named temp file with the extension
// of kind, ingests it into sess and removes the file on every exit path.
func (b *Bridge) IngestUpload(ctx context.Context, sess domain.RAGSession, blob []byte, filename, kind string) (domain.IngestReport, error) {
	if len(blob) == 0 {
		return domain.IngestReport{}, fmt.Errorf("%w: %s is empty", domain.ErrIngestion, filename)
	}
	ext, err := loader.Extension(kind)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
	}

	f, err := os.CreateTemp(b.tempDir, tempPattern(filename, ext))
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("%w: create temp file: %v", domain.ErrFilesystem, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(blob); err != nil {
		f.Close()
		return domain.IngestReport{}, fmt.Errorf("%w: write temp file: %v", domain.ErrFilesystem, err)
	}
	if err := f.Close(); err != nil {
		return domain.IngestReport{}, fmt.Errorf("%w: close temp file: %v", domain.ErrFilesystem, err)
	}

	report, err := sess.Ingest(ctx, path, kind)
	if err != nil {
		return domain.IngestReport{}, err
	}
	if filename != "" {
		report.Filename = filename
	}
	return report, nil
}

// tempPattern keeps a readable stem of the upload name so chunk sources stay recognizable.
func tempPattern(filename, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.Trim(unsafeName.ReplaceAllString(stem, "_"), "._")
	if stem == "" {
		stem = "upload"
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return stem + "-*" + ext
}
