package query

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loamlabs/noteseek/ai"
	"github.com/loamlabs/noteseek/core"
	"github.com/loamlabs/noteseek/storage"
)

// Default retrieval parameters.
const (
	DefaultTopK                = 10
	DefaultSimilarityThreshold = 0.60
)

// Engine answers questions over indexed documents. It wires query enrichment,
// vector similarity search, hybrid reranking, and answer synthesis.
type Engine struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	completer ai.Completer
	enricher  *Enricher
	reranker  *Reranker
	topK      int
	threshold float32
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithTopK sets how many candidates the similarity search returns before
// reranking. Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		if topK > 0 {
			e.topK = topK
		}
		return nil
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity for a document
// to be considered a candidate. Default is DefaultSimilarityThreshold.
func WithSimilarityThreshold(threshold float32) Option {
	return func(e *Engine) error {
		e.threshold = threshold
		return nil
	}
}

// NewEngine creates a new query engine.
func NewEngine(
	documents storage.DocumentRepository,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	enricher, err := NewEnricher(provider.Completer())
	if err != nil {
		return nil, err
	}
	reranker, err := NewReranker()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		documents: documents,
		embedder:  provider.Embedder(),
		completer: provider.Completer(),
		enricher:  enricher,
		reranker:  reranker,
		topK:      DefaultTopK,
		threshold: DefaultSimilarityThreshold,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Retrieve runs the retrieval half of the pipeline: enrich the query, search
// for similar documents, and rerank the candidates.
// Returns the ranked candidates and the enrichment metadata.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]*core.Candidate, *core.QueryMetadata, error) {
	return e.retrieve(ctx, query, &noopMonitor{})
}

// Ask answers a question using the indexed documents.
// Returns the synthesized answer text.
func (e *Engine) Ask(ctx context.Context, query string) (string, error) {
	return e.AskWithMonitor(ctx, query, nil)
}

// AskWithMonitor answers a question with monitoring.
// The monitor receives callbacks at each stage of the query pipeline.
func (e *Engine) AskWithMonitor(ctx context.Context, query string, monitor QueryMonitor) (string, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	candidates, meta, err := e.retrieve(ctx, query, monitor)
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		e.logger.Debug("no candidates retrieved", "query", query)
		answer := "No matching documents were found for this question."
		monitor.Finish(answer)
		return answer, nil
	}

	sections := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		sections = append(sections, candidate.Text)
	}
	prompt := buildAnswerPrompt(strings.Join(sections, "\n\n---\n\n"), meta.OriginalQuery)

	answer, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("error synthesizing answer", "err", err)
		return "", err
	}
	answer = strings.TrimSpace(answer)
	monitor.Finish(answer)

	return answer, nil
}

func (e *Engine) retrieve(ctx context.Context, query string, monitor QueryMonitor) ([]*core.Candidate, *core.QueryMetadata, error) {
	monitor.Start(query)

	// 1. Extract structured metadata and enrich the query
	meta, err := e.enricher.Enrich(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	monitor.AfterEnrichment(meta)

	// 2. Semantic search using the enriched query
	embedding, err := e.embedder.EmbedText(ctx, meta.EnrichedQuery)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", meta.EnrichedQuery, "err", err)
		return nil, nil, err
	}

	matches, err := e.documents.FindSimilar(ctx, embedding, e.threshold, e.topK)
	if err != nil {
		e.logger.Error("error querying for similar documents", "err", err)
		return nil, nil, err
	}
	monitor.AfterSimilaritySearch(matches)

	// 3. Hybrid rerank against the enriched query
	candidates := make([]*core.Candidate, 0, len(matches))
	for _, match := range matches {
		if match.Document == nil {
			continue
		}
		candidates = append(candidates, &core.Candidate{
			Text:     match.Document.ContextText(),
			Metadata: match.Document.Metadata,
			Score:    match.Score,
		})
	}

	ranked := e.reranker.Rerank(candidates, meta.EnrichedQuery)
	monitor.AfterRerank(ranked)

	return ranked, meta, nil
}
