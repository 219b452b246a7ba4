package core

import (
	"fmt"
	"slices"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - ParentHeaders must equal HeaderPath without its last element
//   - Activity must equal the last HeaderPath element when the path is non-empty
//
// NOT validated:
//   - Sprint/Date/Week (legitimately absent for undated notes)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if len(chunk.HeaderPath) == 0 {
		if chunk.Metadata.Activity != "" || len(chunk.Metadata.ParentHeaders) != 0 {
			return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrHeaderPathMismatch)
		}
		return nil
	}

	if chunk.Metadata.Activity != chunk.HeaderPath[len(chunk.HeaderPath)-1] {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrHeaderPathMismatch)
	}
	if !slices.Equal(chunk.Metadata.ParentHeaders, chunk.HeaderPath[:len(chunk.HeaderPath)-1]) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrHeaderPathMismatch)
	}

	return nil
}

// ValidateDocument validates a RetrievalDocument according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - ChunkCount must be at least 1
//   - source_file and chunk_count bookkeeping entries must be present
//
// NOT validated (populated by the indexing pipeline):
//   - Vector (can be empty until the embedding stage runs)
//   - ID (derived from text content)
func ValidateDocument(doc *RetrievalDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if doc.ChunkCount < 1 {
		return fmt.Errorf("%w: chunk count %d", ErrInvalidDocument, doc.ChunkCount)
	}

	if doc.Metadata["source_file"] == "" || doc.Metadata["chunk_count"] == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingBookkeeping)
	}

	return nil
}
