package domain

import "errors"

var (
	// ErrValidation marks bad or missing caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failure of the PDF parser, embedder or completer.
	ErrUpstream = errors.New("upstream service failed")
	// ErrNoDocuments is returned when an initialize run indexed nothing.
	ErrNoDocuments = errors.New("no documents could be indexed")
	// ErrNotInitialized is returned when no index generation is live.
	ErrNotInitialized = errors.New("index not initialized")
)
