package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/loamlabs/noteseek/core"
	"github.com/loamlabs/noteseek/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
	}, nil
}

// NewRepository opens a BadgerDB database at the given path and creates a
// document repository on top of it. Returns repo, backend, and error.
// Caller must close both the repo and the backend when done.
func NewRepository(path string) (storage.DocumentRepository, *Backend, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}

// Close releases repository resources.
// The underlying backend is owned by the caller and closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage.
// IDs are content-based, so re-adding identical text overwrites in place.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.RetrievalDocument) ([]*core.RetrievalDocument, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			if document.Id == 0 {
				document.Id = core.IDFromContent(document.SourceFile + "\x1f" + document.Text)
			}
			now := time.Now().UTC()
			if document.InsertedAt.IsZero() {
				document.InsertedAt = now
			}
			document.UpdatedAt = now

			// Store primary record
			key := makeDocumentKey(document.Id)
			value, err := storage.MarshalDocument(document)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update source-file index
			sourceKey := makeDocumentSourceKey(document.SourceFile, document.Id)
			if err := tx.Set(sourceKey, storage.MarshalID(document.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, documents ...*core.RetrievalDocument) ([]*core.RetrievalDocument, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			key := makeDocumentKey(document.Id)

			// Read old record to detect changes
			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			document.UpdatedAt = time.Now().UTC()

			value, err := storage.MarshalDocument(document)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update source-file index if the source moved
			if old.SourceFile != document.SourceFile {
				oldSourceKey := makeDocumentSourceKey(old.SourceFile, old.Id)
				if err := tx.Delete(oldSourceKey); err != nil {
					return err
				}
				newSourceKey := makeDocumentSourceKey(document.SourceFile, document.Id)
				if err := tx.Set(newSourceKey, storage.MarshalID(document.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			// Read record to get the source file for index cleanup
			document, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if document == nil {
				return storage.ErrNotFound
			}

			sourceKey := makeDocumentSourceKey(document.SourceFile, document.Id)
			if err := tx.Delete(sourceKey); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteDocumentsBySourceFile removes every document from the given source file.
func (r *DocumentRepository) DeleteDocumentsBySourceFile(ctx context.Context, sourceFile string) (int, error) {
	ids, err := r.documentIDsBySource(sourceFile)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.DeleteDocuments(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.RetrievalDocument, error) {
	var result *core.RetrievalDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		var err error
		result, err = r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.RetrievalDocument, error) {
	var result []*core.RetrievalDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			document, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if document != nil {
				result = append(result, document)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsBySourceFile retrieves all documents from the given source file.
func (r *DocumentRepository) GetDocumentsBySourceFile(ctx context.Context, sourceFile string) ([]*core.RetrievalDocument, error) {
	ids, err := r.documentIDsBySource(sourceFile)
	if err != nil {
		return nil, err
	}
	return r.GetDocuments(ctx, ids...)
}

// ListDocuments retrieves every stored document.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.RetrievalDocument, error) {
	var results []*core.RetrievalDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.HasPrefix(item.Key(), []byte(documentSourcePrefix)) {
				continue
			}
			var document *core.RetrievalDocument
			err := item.Value(func(val []byte) error {
				var err error
				document, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	return results, err
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if bytes.HasPrefix(iter.Item().Key(), []byte(documentSourcePrefix)) {
				continue
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// documentIDsBySource scans the source-file index for a file's document IDs.
func (r *DocumentRepository) documentIDsBySource(sourceFile string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialDocumentSourceKey(sourceFile)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// readDocument reads a document by key within a transaction.
// Returns nil (not an error) if the key does not exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.RetrievalDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var document *core.RetrievalDocument
	err = item.Value(func(val []byte) error {
		var err error
		document, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return document, nil
}
