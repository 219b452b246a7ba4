package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidDocument indicates a RetrievalDocument failed validation.
	ErrInvalidDocument = errors.New("invalid retrieval document")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrHeaderPathMismatch indicates the header path and the derived
	// activity/parent-headers fields disagree.
	ErrHeaderPathMismatch = errors.New("header path does not match metadata")

	// ErrMissingBookkeeping indicates a document lacks the source_file or
	// chunk_count metadata entries.
	ErrMissingBookkeeping = errors.New("missing bookkeeping metadata")
)
