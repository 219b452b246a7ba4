package query

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/loamlabs/noteseek/core"
)

// Scoring constants for the hybrid reranker.
const (
	// exactMatchBonus is added when a metadata value appears verbatim in the query.
	exactMatchBonus = 1.0

	// partialMatchBonus is added per query token matching part of a metadata token.
	partialMatchBonus = 0.5

	// keywordBonus is added per query token found in the candidate text.
	keywordBonus = 0.1

	// metadataWeight multiplies the metadata score in the composite score.
	metadataWeight = 2.0

	// minThreshold is the floor for the adaptive filtering threshold.
	minThreshold = 0.5

	// thresholdRatio scales the best composite score into the filtering threshold.
	thresholdRatio = 0.5

	// fallbackCount is how many candidates survive when none clear the threshold.
	fallbackCount = 3
)

// importantFields are the metadata fields checked for matches against the query.
var importantFields = []string{"sprint", "date", "activity", "context", "header_path"}

// Reranker recomputes candidate scores by combining the similarity score from
// the vector backend with metadata-match and keyword-overlap signals, then
// filters with an adaptive threshold.
type Reranker struct {
	logger *slog.Logger
}

// RerankerOption configures a Reranker.
type RerankerOption func(*Reranker) error

// WithRerankerLogger sets a custom logger.
// Default is slog.Default().
func WithRerankerLogger(logger *slog.Logger) RerankerOption {
	return func(r *Reranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReranker creates a new hybrid reranker.
func NewReranker(opts ...RerankerOption) (*Reranker, error) {
	r := &Reranker{
		logger: slog.Default().With("component", "reranker"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rerank scores every candidate against the query, sorts descending by the
// composite score, and filters with a threshold of half the best score
// (never below 0.5). When no candidate clears the threshold the top three
// are returned instead, so a non-empty input never yields an empty result.
//
// Candidate scores are overwritten with the composite score. Scoring is
// deterministic for fixed inputs; ties keep their input order.
func (r *Reranker) Rerank(candidates []*core.Candidate, query string) []*core.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	queryLower := strings.ToLower(query)
	queryTokens := strings.Fields(queryLower)

	for _, candidate := range candidates {
		metadataScore := r.metadataScore(candidate.Metadata, queryLower, queryTokens)
		keywordScore := keywordScore(candidate.Text, queryTokens)
		composite := candidate.Score + metadataWeight*metadataScore + keywordScore

		r.logger.Debug("candidate scored",
			"base", candidate.Score,
			"metadata", metadataScore,
			"keyword", keywordScore,
			"composite", composite)

		candidate.Score = composite
	}

	ranked := make([]*core.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	threshold := ranked[0].Score * thresholdRatio
	if threshold < minThreshold {
		threshold = minThreshold
	}

	filtered := make([]*core.Candidate, 0, len(ranked))
	for _, candidate := range ranked {
		if candidate.Score > threshold {
			filtered = append(filtered, candidate)
		}
	}

	r.logger.Debug("reranked candidates",
		"total", len(ranked),
		"threshold", threshold,
		"retained", len(filtered))

	if len(filtered) == 0 {
		if len(ranked) > fallbackCount {
			return ranked[:fallbackCount]
		}
		return ranked
	}
	return filtered
}

// metadataScore sums match bonuses over the important metadata fields.
// A value appearing verbatim in the query and a partial token overlap both
// contribute; the two bonuses are not mutually exclusive.
func (r *Reranker) metadataScore(metadata map[string]string, queryLower string, queryTokens []string) float32 {
	var score float32

	for _, field := range importantFields {
		value, ok := metadata[field]
		if !ok || value == "" {
			continue
		}
		valueLower := strings.ToLower(value)

		if strings.Contains(queryLower, valueLower) {
			score += exactMatchBonus
		}

		valueTokens := strings.Fields(valueLower)
		matches := 0
		for _, token := range queryTokens {
			for _, valueToken := range valueTokens {
				if strings.Contains(valueToken, token) {
					matches++
					break
				}
			}
		}
		score += partialMatchBonus * float32(matches)
	}

	return score
}

// keywordScore counts query tokens present in the candidate text.
func keywordScore(text string, queryTokens []string) float32 {
	textLower := strings.ToLower(text)
	matches := 0
	for _, token := range queryTokens {
		if strings.Contains(textLower, token) {
			matches++
		}
	}
	return keywordBonus * float32(matches)
}
