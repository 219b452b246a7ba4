package query

import (
	"context"
	"errors"
	"testing"

	"github.com/loamlabs/noteseek/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnricher(t *testing.T, reply string) (*Enricher, *mock.MockCompleter) {
	t.Helper()
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(_ context.Context, _ string) (string, error) {
		return reply, nil
	}
	enricher, err := NewEnricher(completer)
	require.NoError(t, err)
	return enricher, completer
}

func TestNewEnricher(t *testing.T) {
	t.Run("nil completer", func(t *testing.T) {
		_, err := NewEnricher(nil)
		assert.Equal(t, ErrCompleterRequired, err)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		enricher, err := NewEnricher(mock.NewMockCompleter(), WithEnricherLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, enricher)
	})
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts all fields", func(t *testing.T) {
		enricher, _ := newTestEnricher(t, `{
			"sprint": "3",
			"date": "2024-03-11",
			"activity": "Planning",
			"context": "backend",
			"focus": "API decisions"
		}`)

		meta, err := enricher.Enrich(ctx, "What was decided about the API during sprint 3 planning?")
		require.NoError(t, err)

		assert.Equal(t, "3", meta.Sprint)
		assert.Equal(t, "2024-03-11", meta.Date)
		assert.Equal(t, "Planning", meta.Activity)
		assert.Equal(t, "backend", meta.Context)
		assert.Equal(t, "What was decided about the API during sprint 3 planning?", meta.OriginalQuery)
		assert.Equal(t,
			"What was decided about the API during sprint 3 planning? "+
				"(within sprint 3 on date 2024-03-11 regarding activity Planning "+
				"in the context of backend specifically about API decisions)",
			meta.EnrichedQuery)
	})

	t.Run("tolerates preamble before the JSON object", func(t *testing.T) {
		enricher, _ := newTestEnricher(t,
			`Sure! {"sprint": "4", "date": null, "activity": null, "context": null}`)

		meta, err := enricher.Enrich(ctx, "sprint question")
		require.NoError(t, err)

		assert.Equal(t, "4", meta.Sprint)
		assert.Empty(t, meta.Date)
		assert.Empty(t, meta.Activity)
		assert.Empty(t, meta.Context)
		assert.Equal(t, "sprint question (within sprint 4)", meta.EnrichedQuery)
	})

	t.Run("tolerates markdown code fences", func(t *testing.T) {
		enricher, _ := newTestEnricher(t, "```json\n"+
			`{"sprint": null, "date": "2024-05-02", "activity": null, "context": null}`+
			"\n```")

		meta, err := enricher.Enrich(ctx, "what happened on 2024-05-02")
		require.NoError(t, err)
		assert.Equal(t, "2024-05-02", meta.Date)
	})

	t.Run("numeric sprint coerced to string", func(t *testing.T) {
		enricher, _ := newTestEnricher(t,
			`{"sprint": 7, "date": null, "activity": null, "context": null}`)

		meta, err := enricher.Enrich(ctx, "sprint 7 review")
		require.NoError(t, err)
		assert.Equal(t, "7", meta.Sprint)
	})

	t.Run("literal null strings treated as absent", func(t *testing.T) {
		enricher, _ := newTestEnricher(t,
			`{"sprint": "null", "date": "null", "activity": "null", "context": "null"}`)

		meta, err := enricher.Enrich(ctx, "a question")
		require.NoError(t, err)
		assert.Empty(t, meta.Sprint)
		assert.Equal(t, "a question", meta.EnrichedQuery)
	})

	t.Run("prose reply degrades to pass-through", func(t *testing.T) {
		enricher, _ := newTestEnricher(t,
			"I could not find any structured information in that question.")

		meta, err := enricher.Enrich(ctx, "free form question")
		require.NoError(t, err)

		assert.Equal(t, "free form question", meta.OriginalQuery)
		assert.Equal(t, "free form question", meta.EnrichedQuery)
		assert.Empty(t, meta.Sprint)
		assert.Empty(t, meta.Date)
	})

	t.Run("malformed JSON degrades to pass-through", func(t *testing.T) {
		enricher, _ := newTestEnricher(t, `{"sprint": "3", "date":`)

		meta, err := enricher.Enrich(ctx, "broken reply")
		require.NoError(t, err)
		assert.Equal(t, "broken reply", meta.EnrichedQuery)
	})

	t.Run("repairs unquoted keys", func(t *testing.T) {
		enricher, _ := newTestEnricher(t,
			`{sprint": "5", "date": null, "activity": null, "context": null}`)

		meta, err := enricher.Enrich(ctx, "sprint 5 status")
		require.NoError(t, err)
		assert.Equal(t, "5", meta.Sprint)
	})

	t.Run("transport error is surfaced", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.CompleteFunc = func(_ context.Context, _ string) (string, error) {
			return "", errors.New("connection refused")
		}
		enricher, err := NewEnricher(completer)
		require.NoError(t, err)

		_, err = enricher.Enrich(ctx, "any question")
		assert.Error(t, err)
	})

	t.Run("prompt contains the question", func(t *testing.T) {
		enricher, completer := newTestEnricher(t, "{}")

		_, err := enricher.Enrich(ctx, "where is the retro for sprint 2")
		require.NoError(t, err)

		require.Len(t, completer.Prompts, 1)
		assert.Contains(t, completer.Prompts[0], "where is the retro for sprint 2")
	})

	t.Run("empty object passes query through", func(t *testing.T) {
		enricher, _ := newTestEnricher(t, "{}")

		meta, err := enricher.Enrich(ctx, "plain question")
		require.NoError(t, err)
		assert.Equal(t, "plain question", meta.EnrichedQuery)
	})
}
