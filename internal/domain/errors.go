package domain

import "errors"

var (
	ErrFilesystem         = errors.New("filesystem error")
	ErrIngestion          = errors.New("ingestion failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnsupportedKind    = errors.New("unsupported document kind")
	ErrEmptyQuery         = errors.New("query is empty")
)
