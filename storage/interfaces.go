package storage

import (
	"context"

	"github.com/loamlabs/noteseek/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds documents similar to the given vector.
	// Returns documents with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing retrieval documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// Document IDs are content-based (IDFromContent over the source file and
	// document text), so re-adding identical content overwrites rather than
	// duplicates.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, documents ...*core.RetrievalDocument) ([]*core.RetrievalDocument, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, documents ...*core.RetrievalDocument) ([]*core.RetrievalDocument, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// DeleteDocumentsBySourceFile removes every document that came from the
	// given source file. Returns the number of documents deleted.
	// Used to replace a file's documents when it is re-indexed.
	DeleteDocumentsBySourceFile(ctx context.Context, sourceFile string) (int, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.RetrievalDocument, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.RetrievalDocument, error)

	// GetDocumentsBySourceFile retrieves all documents that came from the
	// given source file.
	GetDocumentsBySourceFile(ctx context.Context, sourceFile string) ([]*core.RetrievalDocument, error)

	// ListDocuments retrieves every stored document.
	// Intended for index summaries and maintenance, not the query path.
	ListDocuments(ctx context.Context) ([]*core.RetrievalDocument, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}
