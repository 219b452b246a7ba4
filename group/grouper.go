package group

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/loamlabs/noteseek/chunk"
	"github.com/loamlabs/noteseek/core"
)

// bookkeepingKeys are metadata entries that carry no semantic signal and are
// excluded from embedding and LLM context downstream.
var bookkeepingKeys = []string{"source_file", "chunk_count"}

// Grouper merges persisted chunks that share identical grouping metadata into
// retrieval documents and enforces the required-field policy.
type Grouper struct {
	requiredFields []string
	logger         *slog.Logger
}

// Option configures a Grouper.
type Option func(*Grouper) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grouper) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGrouper creates a grouper that requires the given metadata fields on
// every chunk of a group. A group where any member misses a required field is
// dropped whole.
func NewGrouper(requiredFields []string, opts ...Option) (*Grouper, error) {
	g := &Grouper{
		requiredFields: requiredFields,
		logger:         slog.Default().With("component", "grouper"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Group merges blocks sharing a GroupKey into retrieval documents, in
// first-seen order. Returns the documents and the number of chunks skipped by
// the required-field policy. A source contributing zero valid documents is
// reported as a warning, never an error.
func (g *Grouper) Group(blocks []chunk.Block, sourceFile string) ([]*core.RetrievalDocument, int) {
	var order []string
	grouped := make(map[string][]chunk.Block)
	for _, block := range blocks {
		key := core.GroupKeyFor(block.Metadata, core.GroupKeyFields)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], block)
	}

	var documents []*core.RetrievalDocument
	skipped := 0
	for _, key := range order {
		members := grouped[key]

		if missing := g.missingRequired(members); len(missing) > 0 {
			skipped += len(members)
			g.logger.Warn("dropping group with missing required metadata",
				"source", sourceFile,
				"missing", missing,
				"chunks", len(members))
			continue
		}

		documents = append(documents, g.buildDocument(members, sourceFile))
	}

	if len(documents) == 0 && len(blocks) > 0 {
		g.logger.Warn("no valid documents produced", "source", sourceFile, "chunks", len(blocks))
	} else {
		g.logger.Debug("grouped chunks",
			"source", sourceFile,
			"documents", len(documents),
			"skipped", skipped)
	}

	return documents, skipped
}

// missingRequired checks the required-field policy against every member of a
// group, not only the first: a group whose members disagree on a required
// field never reaches the index.
func (g *Grouper) missingRequired(members []chunk.Block) []string {
	var missing []string
	for _, field := range g.requiredFields {
		for _, member := range members {
			if !core.FieldValueOf(member.Metadata[field]).IsPresent() {
				missing = append(missing, field)
				break
			}
		}
	}
	return missing
}

// buildDocument merges a group into one retrieval document. Metadata comes
// from the first member; the text prepends a metadata narrative ahead of the
// members' content in original order.
func (g *Grouper) buildDocument(members []chunk.Block, sourceFile string) *core.RetrievalDocument {
	meta := members[0].Metadata

	var text strings.Builder
	text.WriteString("IMPORTANT METADATA:\n")
	if v := core.FieldValueOf(meta["sprint"]); v.IsPresent() {
		text.WriteString("This document concerns Sprint " + v.String() + ".\n")
	}
	if v := core.FieldValueOf(meta["date"]); v.IsPresent() {
		text.WriteString("Event date: " + v.String() + ".\n")
	}
	if v := core.FieldValueOf(meta["activity"]); v.IsPresent() {
		text.WriteString("Activity: " + v.String() + ".\n")
	}
	if v := core.FieldValueOf(meta["header_path"]); v.IsPresent() {
		text.WriteString("Hierarchical context: " + v.String() + ".\n")
	}
	text.WriteString("\nGROUPED DOCUMENT CONTENT:\n")
	for _, member := range members {
		text.WriteString("\n")
		text.WriteString(member.Content)
		text.WriteString("\n")
	}

	flat := core.Flatten(meta)
	delete(flat, "chunk_id") // per-chunk bookkeeping, meaningless after merge
	flat["source_file"] = sourceFile
	flat["chunk_count"] = strconv.Itoa(len(members))

	return &core.RetrievalDocument{
		// Hash the source file with the text so identical content in two
		// files yields two documents.
		Id:                core.IDFromContent(sourceFile + "\x1f" + text.String()),
		Text:              text.String(),
		Metadata:          flat,
		SourceFile:        sourceFile,
		ChunkCount:        len(members),
		ExcludedEmbedKeys: bookkeepingKeys,
		ExcludedLLMKeys:   bookkeepingKeys,
	}
}
