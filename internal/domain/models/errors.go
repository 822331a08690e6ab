package models

import "errors"

// Error kinds surfaced by the core. Per-source OSINT failures do not use
// these: they are reported in-band via SourceResult.UsedFallback.
var (
	// ErrNotFound indicates a missing artifact or case record
	ErrNotFound = errors.New("not found")

	// ErrUnsupported indicates a rejected file extension at upload
	ErrUnsupported = errors.New("unsupported file type")

	// ErrOracleFailure indicates an OCR/NLP/embedding call failed
	ErrOracleFailure = errors.New("oracle failure")

	// ErrSourceUnavailable indicates an external source failed or lacks credentials
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCorruptCache indicates malformed JSON in a cache file
	ErrCorruptCache = errors.New("corrupt cache entry")
)
