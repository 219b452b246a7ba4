package noteseek

import (
	"log/slog"

	"github.com/loamlabs/noteseek/ai"
	"github.com/loamlabs/noteseek/ai/openai"
	"github.com/loamlabs/noteseek/ingestion"
	"github.com/loamlabs/noteseek/query"
	"github.com/loamlabs/noteseek/storage"
	"github.com/loamlabs/noteseek/storage/badger"
)

// Library bundles the document store and AI services behind one handle.
// It is the entry point for embedding noteseek in another program.
type Library struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	provider  ai.Provider
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of the default
// OpenAI-compatible one. Useful for tests and custom backends.
func WithProvider(provider ai.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// Open opens (or creates) a noteseek library at the given path.
func Open(filePath string, opts ...LibraryOption) (*Library, error) {
	// Apply options
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Library{
		backend:   backend,
		documents: documents,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

// Close releases the AI provider and the underlying storage.
func (l *Library) Close() error {
	// Close AI provider first
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}

	if err := l.documents.Close(); err != nil {
		l.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the underlying document store.
func (l *Library) DocumentRepository() storage.DocumentRepository {
	return l.documents
}

// NewPipeline creates an indexing pipeline over this library's store.
func (l *Library) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(l.documents, l.provider, opts...)
}

// NewEngine creates a query engine over this library's store.
func (l *Library) NewEngine(opts ...query.Option) (*query.Engine, error) {
	return query.NewEngine(l.documents, l.provider, opts...)
}
