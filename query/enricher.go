package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/loamlabs/noteseek/ai"
	"github.com/loamlabs/noteseek/core"
)

// Enricher extracts structured metadata from free-text questions using an LLM
// and rewrites the question with that metadata made explicit.
//
// Enrichment is best-effort: when the model's reply cannot be parsed, the
// original question is passed through unchanged so that retrieval never
// blocks on a malformed completion.
type Enricher struct {
	completer ai.Completer
	logger    *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithEnricherLogger sets a custom logger.
// Default is slog.Default().
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates a new query enricher backed by the given completion service.
func NewEnricher(completer ai.Completer, opts ...EnricherOption) (*Enricher, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	e := &Enricher{
		completer: completer,
		logger:    slog.Default().With("component", "enricher"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// extraction is an internal type used for JSON unmarshaling.
// Fields are `any` because local models sometimes emit numbers where
// strings are expected.
type extraction struct {
	Sprint   any `json:"sprint"`
	Date     any `json:"date"`
	Activity any `json:"activity"`
	Context  any `json:"context"`
	Focus    any `json:"focus"`
}

// Enrich extracts sprint, date, activity, and context fields from the query
// and builds an enriched query naming each extracted field.
//
// A transport failure talking to the model is returned as an error. A reply
// that cannot be parsed is not an error: the returned metadata passes the
// original query through unchanged.
func (e *Enricher) Enrich(ctx context.Context, query string) (*core.QueryMetadata, error) {
	response, err := e.completer.Complete(ctx, buildExtractionPrompt(query))
	if err != nil {
		e.logger.Error("failed to analyze query", "err", err)
		return nil, err
	}

	ext, ok := e.parseExtraction(response)
	if !ok {
		return passthroughMetadata(query), nil
	}

	meta := &core.QueryMetadata{
		Sprint:        stringField(ext.Sprint),
		Date:          stringField(ext.Date),
		Activity:      stringField(ext.Activity),
		Context:       stringField(ext.Context),
		OriginalQuery: query,
	}
	meta.EnrichedQuery = enrichedQuery(query, meta, stringField(ext.Focus))

	e.logger.Debug("query enriched",
		"sprint", meta.Sprint,
		"date", meta.Date,
		"activity", meta.Activity,
		"context", meta.Context,
		"enriched", meta.EnrichedQuery)

	return meta, nil
}

// parseExtraction parses a model reply into an extraction, tolerating
// markdown code fences, leading prose before the opening brace, and a few
// common JSON formatting mistakes.
func (e *Enricher) parseExtraction(response string) (extraction, bool) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Tolerate preamble such as "Sure! {...}" by seeking the braces.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		e.logger.Warn("no JSON object in analysis response", "response", response)
		return extraction{}, false
	}
	text = repairJSON(text[start : end+1])

	var ext extraction
	if err := json.Unmarshal([]byte(text), &ext); err != nil {
		e.logger.Warn("error parsing analysis response", "response", text, "err", err)
		return extraction{}, false
	}
	return ext, true
}

// stringField coerces an extracted JSON value to a string, treating null,
// empty, and the literal "null" as absent.
func stringField(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(value)
		if strings.EqualFold(trimmed, "null") || strings.EqualFold(trimmed, "none") {
			return ""
		}
		return trimmed
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

// enrichedQuery appends a parenthetical clause naming each extracted field.
// When nothing was extracted the original query is returned unchanged.
func enrichedQuery(query string, meta *core.QueryMetadata, focus string) string {
	parts := make([]string, 0, 5)
	if meta.Sprint != "" {
		parts = append(parts, "within sprint "+meta.Sprint)
	}
	if meta.Date != "" {
		parts = append(parts, "on date "+meta.Date)
	}
	if meta.Activity != "" {
		parts = append(parts, "regarding activity "+meta.Activity)
	}
	if meta.Context != "" {
		parts = append(parts, "in the context of "+meta.Context)
	}
	if focus != "" {
		parts = append(parts, "specifically about "+focus)
	}
	if len(parts) == 0 {
		return query
	}
	return query + " (" + strings.Join(parts, " ") + ")"
}

func passthroughMetadata(query string) *core.QueryMetadata {
	return &core.QueryMetadata{
		OriginalQuery: query,
		EnrichedQuery: query,
	}
}
