package chunk

import (
	"log/slog"
	"strings"

	"github.com/loamlabs/noteseek/core"
)

// DefaultMinLines is the number of accumulated content lines that triggers a
// chunk flush. Small buffers keep chunks roughly bounded instead of producing
// one chunk per section.
const DefaultMinLines = 3

// Chunker turns a markdown document into contextual chunks with inherited
// header metadata. A Chunker holds no per-document state and is safe to reuse
// across documents; each Process call scans one document sequentially.
type Chunker struct {
	minLines int
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMinLines sets the content buffer size that triggers a chunk flush.
// Values below 1 are clamped to 1.
func WithMinLines(n int) Option {
	return func(c *Chunker) error {
		if n < 1 {
			n = 1
		}
		c.minLines = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewChunker creates a new chunker.
func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		minLines: DefaultMinLines,
		logger:   slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ProcessDocument splits document content into lines and processes them.
func (c *Chunker) ProcessDocument(content, sourceFile string) []core.Chunk {
	return c.Process(strings.Split(content, "\n"), sourceFile)
}

// Process scans document lines top to bottom and emits chunks carrying the
// header context in effect at their position.
//
// A header line at level N first flushes any pending content with the context
// as of before the header applies, then truncates the header stack to depth
// N-1 and appends the new title. Non-empty content lines accumulate until the
// buffer reaches the minimum line count, then flush with the current context.
// A final flush covers whatever remains at end of document.
func (c *Chunker) Process(lines []string, sourceFile string) []core.Chunk {
	ctx := scanContext{}
	var chunks []core.Chunk
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		chunks = append(chunks, newChunk(strings.Join(buffer, "\n"), ctx.snapshot(), sourceFile))
		buffer = buffer[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			// Flush before the header mutates the context.
			flush()

			level := headerLevel(line)
			title := strings.TrimSpace(strings.TrimLeft(line, "#"))
			ctx.applyHeader(level, title)
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		buffer = append(buffer, line)
		if len(buffer) >= c.minLines {
			flush()
		}
	}

	flush()

	c.logger.Debug("processed document", "source", sourceFile, "chunks", len(chunks))
	return chunks
}

// headerLevel counts the leading header markers.
func headerLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	return level
}

// newChunk materializes a chunk from a context snapshot. The snapshot already
// owns its header slice, so the chunk's HeaderPath and ParentHeaders cannot
// alias the live scan context.
func newChunk(content string, snap scanContext, sourceFile string) core.Chunk {
	meta := core.ChunkMetadata{
		Date:   snap.date,
		Sprint: snap.sprint,
		Week:   snap.week,
	}
	if len(snap.headers) > 0 {
		meta.Activity = snap.headers[len(snap.headers)-1]
		meta.ParentHeaders = snap.headers[:len(snap.headers)-1]
	}
	return core.Chunk{
		Content:    content,
		Metadata:   meta,
		SourceFile: sourceFile,
		HeaderPath: snap.headers,
	}
}
