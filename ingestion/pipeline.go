package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/loamlabs/noteseek/ai"
	"github.com/loamlabs/noteseek/chunk"
	"github.com/loamlabs/noteseek/group"
	"github.com/loamlabs/noteseek/storage"
	"github.com/panjf2000/ants/v2"
)

// ChunkFileSuffix is appended to a source file's base name when its chunks
// are persisted to the chunk store.
const ChunkFileSuffix = ".chunks"

// Stats aggregates the outcome of an indexing run across files.
type Stats struct {
	Files         int // Files processed successfully
	Chunks        int // Chunks extracted
	Documents     int // Retrieval documents indexed
	SkippedChunks int // Chunks dropped by parsing or policy
	Failed        int // Files that could not be processed
}

// Pipeline turns note files into indexed retrieval documents.
// Files are chunked, grouped into documents, embedded, and stored.
// Independent files are processed in parallel; chunk order within one file
// is preserved by the sequential scan.
type Pipeline struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	chunker   *chunk.Chunker
	grouper   *group.Grouper
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent file processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(chunker *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithGrouper replaces the default grouper.
func WithGrouper(grouper *group.Grouper) Option {
	return func(p *Pipeline) error {
		if grouper != nil {
			p.grouper = grouper
		}
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := chunk.NewChunker()
	if err != nil {
		pool.Release()
		return nil, err
	}
	grouper, err := group.NewGrouper(nil)
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		embedder:  provider.Embedder(),
		chunker:   chunker,
		grouper:   grouper,
		pool:      pool,
		logger:    slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// ChunkFiles chunks each source file and persists the chunks to the chunk
// store directory. Files are processed in parallel; a file that fails is
// logged and counted without aborting the rest.
func (p *Pipeline) ChunkFiles(paths []string, outDir string) (*Stats, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	stats := &Stats{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		path := path
		err := p.pool.Submit(func() {
			defer wg.Done()

			chunks, err := p.chunkFile(path, outDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error chunking file", "file", path, "err", err)
				stats.Failed++
				return
			}
			stats.Files++
			stats.Chunks += chunks
		})
		if err != nil {
			wg.Done()
			return stats, err
		}
	}
	wg.Wait()

	return stats, nil
}

// IndexFiles runs the full pipeline for each source file: chunk, group,
// embed, and store. Documents previously indexed from the same file are
// replaced. Files are processed in parallel; a file that fails is logged
// and counted without aborting the rest.
func (p *Pipeline) IndexFiles(ctx context.Context, paths []string) (*Stats, error) {
	stats := &Stats{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		path := path
		err := p.pool.Submit(func() {
			defer wg.Done()

			result, err := p.indexFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error indexing file", "file", path, "err", err)
				stats.Failed++
				return
			}
			stats.Files++
			stats.Chunks += result.chunks
			stats.Documents += result.documents
			stats.SkippedChunks += result.skipped
		})
		if err != nil {
			wg.Done()
			return stats, err
		}
	}
	wg.Wait()

	return stats, nil
}

// IndexChunkFiles runs the indexing half of the pipeline over previously
// persisted chunk files.
func (p *Pipeline) IndexChunkFiles(ctx context.Context, paths []string) (*Stats, error) {
	stats := &Stats{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		path := path
		err := p.pool.Submit(func() {
			defer wg.Done()

			blocks, malformed, err := chunk.ReadChunkFile(path, p.logger)
			var result fileResult
			if err == nil {
				result, err = p.indexBlocks(ctx, blocks, sourceName(path))
				result.skipped += malformed
				result.chunks = len(blocks) + malformed
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error indexing chunk file", "file", path, "err", err)
				stats.Failed++
				return
			}
			stats.Files++
			stats.Chunks += result.chunks
			stats.Documents += result.documents
			stats.SkippedChunks += result.skipped
		})
		if err != nil {
			wg.Done()
			return stats, err
		}
	}
	wg.Wait()

	return stats, nil
}

type fileResult struct {
	chunks    int
	documents int
	skipped   int
}

// chunkFile chunks one source file and writes its chunk store file.
func (p *Pipeline) chunkFile(path, outDir string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	chunks := p.chunker.ProcessDocument(string(content), source)
	if len(chunks) == 0 {
		p.logger.Warn("file produced no chunks", "file", path)
		return 0, nil
	}

	outPath := filepath.Join(outDir, source+ChunkFileSuffix)
	if err := chunk.WriteChunkFile(outPath, chunks); err != nil {
		return 0, err
	}

	p.logger.Info("chunked file", "file", path, "chunks", len(chunks), "out", outPath)
	return len(chunks), nil
}

// indexFile chunks, groups, embeds, and stores one source file.
func (p *Pipeline) indexFile(ctx context.Context, path string) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}

	source := filepath.Base(path)
	chunks := p.chunker.ProcessDocument(string(content), source)

	result, err := p.indexBlocks(ctx, chunk.Blocks(chunks), source)
	result.chunks = len(chunks)
	return result, err
}

// indexBlocks groups persisted blocks into documents, embeds them, and
// replaces the source file's documents in the repository.
func (p *Pipeline) indexBlocks(ctx context.Context, blocks []chunk.Block, source string) (fileResult, error) {
	documents, skipped := p.grouper.Group(blocks, source)
	result := fileResult{skipped: skipped}
	if len(documents) == 0 {
		return result, nil
	}

	texts := make([]string, len(documents))
	for i, document := range documents {
		texts[i] = document.EmbedText()
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return result, err
	}
	if len(embeddings) != len(documents) {
		return result, fmt.Errorf("%w: expected %d, received %d",
			ErrEmbeddingMismatch, len(documents), len(embeddings))
	}
	for i := range embeddings {
		documents[i].Vector = embeddings[i]
	}

	// Replace any documents previously indexed from this file
	if _, err := p.documents.DeleteDocumentsBySourceFile(ctx, source); err != nil {
		return result, err
	}
	if _, err := p.documents.AddDocuments(ctx, documents...); err != nil {
		return result, err
	}

	result.documents = len(documents)
	p.logger.Info("indexed file", "file", source, "documents", len(documents), "skippedChunks", skipped)
	return result, nil
}

// sourceName recovers the source file name from a chunk file path.
func sourceName(path string) string {
	base := filepath.Base(path)
	if filepath.Ext(base) == ChunkFileSuffix {
		return base[:len(base)-len(ChunkFileSuffix)]
	}
	return base
}
