package core

import (
	"encoding/binary"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkMetadata holds the structural context inherited by a chunk from the
// headers above it. Fields are sticky during a document scan: once a header
// sets a value it persists until a later header overrides it.
type ChunkMetadata struct {
	Date          *time.Time // From an ISO YYYY-MM-DD token in a header
	Sprint        int        // From "Sprint <n>" in a header; 0 means absent
	Week          string     // From "Week of ..." in a header
	Activity      string     // Last element of the header path
	ParentHeaders []string   // All header path elements except the last
}

// Chunk is a unit of note content plus inherited structural metadata.
// Chunks are created by the chunker during a single document scan and are
// immutable afterwards.
type Chunk struct {
	Content    string
	Metadata   ChunkMetadata
	SourceFile string
	HeaderPath []string // Full header chain down to this chunk, most specific last
}

// RetrievalDocument is a merged group of chunks prepared for indexing.
// Text carries a metadata narrative followed by the grouped content.
// Metadata is fully flattened to strings; SourceFile and ChunkCount are
// bookkeeping and appear in ExcludedEmbedKeys/ExcludedLLMKeys.
type RetrievalDocument struct {
	Id                ID
	Text              string
	Metadata          map[string]string
	SourceFile        string
	ChunkCount        int
	ExcludedEmbedKeys []string
	ExcludedLLMKeys   []string
	Vector            []float32 // Embedding vector (populated by the indexing pipeline)
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// EmbedText returns the document text with embedding-excluded metadata withheld.
// Remaining metadata is prepended as "key: value" lines in sorted key order.
func (d *RetrievalDocument) EmbedText() string {
	return d.textWithMetadata(d.ExcludedEmbedKeys)
}

// ContextText returns the document text as presented to the answering LLM,
// with LLM-excluded metadata withheld.
func (d *RetrievalDocument) ContextText() string {
	return d.textWithMetadata(d.ExcludedLLMKeys)
}

func (d *RetrievalDocument) textWithMetadata(excluded []string) string {
	skip := make(map[string]bool, len(excluded))
	for _, k := range excluded {
		skip[k] = true
	}

	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(d.Metadata[k])
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(d.Text)
	return b.String()
}

// QueryMetadata holds structured fields extracted from a free-text question,
// plus the question rewritten to make those fields explicit.
// When extraction fails, EnrichedQuery equals OriginalQuery and all structured
// fields are empty.
type QueryMetadata struct {
	Sprint        string
	Date          string
	Activity      string
	Context       string
	OriginalQuery string
	EnrichedQuery string
}

// Candidate is a retrieved snippet with its metadata and relevance score.
// The score starts as the similarity backend's score and is overwritten in
// place with the composite score by the reranker. Candidates are transient
// and scoped to one query.
type Candidate struct {
	Text     string
	Metadata map[string]string
	Score    float32
}

// SearchResult represents a document match from vector similarity search.
type SearchResult struct {
	Document *RetrievalDocument
	Score    float32
}
