package query

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/loamlabs/noteseek/ai/mock"
	"github.com/loamlabs/noteseek/core"
	"github.com/loamlabs/noteseek/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(repo, provider)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with options", func(t *testing.T) {
		engine, err := NewEngine(repo, provider,
			WithLogger(slog.Default()),
			WithTopK(5),
			WithSimilarityThreshold(0.3),
		)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewEngine(nil, provider)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(repo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestAsk_EmptyIndex(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()
	engine, err := NewEngine(repo, provider)
	require.NoError(t, err)

	answer, err := engine.Ask(context.Background(), "what happened in sprint 3")
	require.NoError(t, err)
	assert.Contains(t, answer, "No matching documents")
}

// indexedEngine builds an engine over two indexed documents whose vectors are
// chosen so the sprint 3 document is the closest match for the test queries.
func indexedEngine(t *testing.T, completerReply string) (*Engine, *mock.MockCompleter) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	sprintDoc := &core.RetrievalDocument{
		Text: "IMPORTANT METADATA:\nThis document concerns Sprint 3.\nActivity: Planning.\n\nGROUPED DOCUMENT CONTENT:\n\nDecided to split the API into two services.\n",
		Metadata: map[string]string{
			"sprint":      "3",
			"activity":    "Planning",
			"source_file": "notes.md",
			"chunk_count": "1",
		},
		SourceFile:        "notes.md",
		ChunkCount:        1,
		ExcludedEmbedKeys: []string{"source_file", "chunk_count"},
		ExcludedLLMKeys:   []string{"source_file", "chunk_count"},
		Vector:            []float32{1, 0},
	}
	otherDoc := &core.RetrievalDocument{
		Text: "IMPORTANT METADATA:\nThis document concerns Sprint 9.\n\nGROUPED DOCUMENT CONTENT:\n\nUnrelated grocery planning.\n",
		Metadata: map[string]string{
			"sprint":      "9",
			"source_file": "other.md",
			"chunk_count": "1",
		},
		SourceFile:        "other.md",
		ChunkCount:        1,
		ExcludedEmbedKeys: []string{"source_file", "chunk_count"},
		ExcludedLLMKeys:   []string{"source_file", "chunk_count"},
		Vector:            []float32{0.2, 0.9},
	}

	_, err = repo.AddDocuments(context.Background(), sprintDoc, otherDoc)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
		// First call extracts metadata, later calls synthesize answers.
		if strings.Contains(prompt, "Analyze the question") {
			return `{"sprint": "3", "date": null, "activity": null, "context": null}`, nil
		}
		return completerReply, nil
	}
	provider := mock.NewMockProviderWithServices(embedder, completer)

	engine, err := NewEngine(repo, provider, WithSimilarityThreshold(0.1))
	require.NoError(t, err)
	return engine, completer
}

func TestRetrieve(t *testing.T) {
	engine, _ := indexedEngine(t, "unused")

	candidates, meta, err := engine.Retrieve(context.Background(), "what was planned for sprint 3")
	require.NoError(t, err)

	require.NotEmpty(t, candidates)
	assert.Contains(t, candidates[0].Text, "split the API")
	assert.Equal(t, "3", candidates[0].Metadata["sprint"])

	assert.Equal(t, "3", meta.Sprint)
	assert.Equal(t, "what was planned for sprint 3", meta.OriginalQuery)
	assert.Contains(t, meta.EnrichedQuery, "within sprint 3")
}

func TestRetrieve_BookkeepingExcludedFromContext(t *testing.T) {
	engine, _ := indexedEngine(t, "unused")

	candidates, _, err := engine.Retrieve(context.Background(), "what was planned for sprint 3")
	require.NoError(t, err)

	require.NotEmpty(t, candidates)
	assert.NotContains(t, candidates[0].Text, "source_file")
	assert.NotContains(t, candidates[0].Text, "chunk_count")
}

func TestAsk(t *testing.T) {
	engine, completer := indexedEngine(t, "The API was split into two services during Sprint 3 planning.")

	answer, err := engine.Ask(context.Background(), "what was planned for sprint 3")
	require.NoError(t, err)

	assert.Equal(t, "The API was split into two services during Sprint 3 planning.", answer)

	// One extraction call plus one synthesis call
	require.Equal(t, 2, completer.CallCount())
	assert.Contains(t, completer.Prompts[1], "split the API")
	assert.Contains(t, completer.Prompts[1], "what was planned for sprint 3")
}

type recordingMonitor struct {
	started    string
	enriched   *core.QueryMetadata
	matches    int
	candidates int
	answer     string
}

func (m *recordingMonitor) Start(query string)                        { m.started = query }
func (m *recordingMonitor) AfterEnrichment(meta *core.QueryMetadata)  { m.enriched = meta }
func (m *recordingMonitor) AfterSimilaritySearch(r []*core.SearchResult) { m.matches = len(r) }
func (m *recordingMonitor) AfterRerank(c []*core.Candidate)           { m.candidates = len(c) }
func (m *recordingMonitor) Finish(answer string)                      { m.answer = answer }

func TestAskWithMonitor(t *testing.T) {
	engine, _ := indexedEngine(t, "Monitored answer.")

	monitor := &recordingMonitor{}
	answer, err := engine.AskWithMonitor(context.Background(), "what was planned for sprint 3", monitor)
	require.NoError(t, err)

	assert.Equal(t, "Monitored answer.", answer)
	assert.Equal(t, "what was planned for sprint 3", monitor.started)
	require.NotNil(t, monitor.enriched)
	assert.Equal(t, "3", monitor.enriched.Sprint)
	assert.Positive(t, monitor.matches)
	assert.Positive(t, monitor.candidates)
	assert.Equal(t, "Monitored answer.", monitor.answer)
}
