// Package storage defines the persistence interfaces for retrieval documents.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: common operations shared by all repositories
//   - DocumentRepository: operations for retrieval documents
//
// Concrete implementations live in subpackages; the BadgerDB implementation
// is in storage/badger.
//
// # Usage
//
// Create a repository instance:
//
//	repo, backend, err := badger.NewRepository("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
