package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loamlabs/noteseek/core"
)

// blockSeparator is the line delimiting blocks in a persisted chunk file.
// Blocks alternate front matter / content.
const blockSeparator = "---"

// Block is one persisted chunk: parsed front matter plus free-text content.
type Block struct {
	Metadata map[string]any
	Content  string
}

// ContextPrefix builds the inline context line stored ahead of a chunk's
// content so the structural metadata participates in the embedding.
func ContextPrefix(chunk *core.Chunk) string {
	var parts []string
	if chunk.Metadata.Sprint > 0 {
		parts = append(parts, fmt.Sprintf("Sprint %d", chunk.Metadata.Sprint))
	}
	if chunk.Metadata.Date != nil {
		parts = append(parts, "Date: "+chunk.Metadata.Date.Format("2006-01-02"))
	}
	if chunk.Metadata.Activity != "" {
		parts = append(parts, "Activity: "+chunk.Metadata.Activity)
	}
	return strings.Join(parts, " | ")
}

// frontMatter builds the YAML-serializable metadata for one chunk.
func frontMatter(chunk *core.Chunk, chunkID int) map[string]any {
	meta := map[string]any{
		"chunk_id":    chunkID,
		"source_file": chunk.SourceFile,
	}
	if chunk.Metadata.Sprint > 0 {
		meta["sprint"] = chunk.Metadata.Sprint
	}
	if chunk.Metadata.Date != nil {
		meta["date"] = chunk.Metadata.Date.Format("2006-01-02")
	}
	if chunk.Metadata.Week != "" {
		meta["week"] = chunk.Metadata.Week
	}
	if chunk.Metadata.Activity != "" {
		meta["activity"] = chunk.Metadata.Activity
	}
	if len(chunk.Metadata.ParentHeaders) > 0 {
		meta["parent_headers"] = chunk.Metadata.ParentHeaders
	}
	if len(chunk.HeaderPath) > 0 {
		meta["header_path"] = chunk.HeaderPath
	}
	return meta
}

// Blocks converts chunks to in-memory blocks carrying the same metadata the
// persisted chunk store would, so a caller can group freshly chunked content
// without a round trip through a chunk file.
func Blocks(chunks []core.Chunk) []Block {
	blocks := make([]Block, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]

		text := chunk.Content
		if prefix := ContextPrefix(chunk); prefix != "" {
			text = prefix + "\n" + text
		}

		blocks = append(blocks, Block{
			Metadata: frontMatter(chunk, i+1),
			Content:  text,
		})
	}
	return blocks
}

// WriteBlocks writes chunks as alternating front-matter/content blocks
// separated by the block separator line.
func WriteBlocks(w io.Writer, chunks []core.Chunk) error {
	for i := range chunks {
		chunk := &chunks[i]

		encoded, err := yaml.Marshal(frontMatter(chunk, i+1))
		if err != nil {
			return fmt.Errorf("encoding front matter for chunk %d: %w", i+1, err)
		}

		text := chunk.Content
		if prefix := ContextPrefix(chunk); prefix != "" {
			text = prefix + "\n" + text
		}

		// Consecutive blocks share one separator line so segments keep
		// alternating front matter / content.
		if _, err := fmt.Fprintf(w, "%s\n%s%s\n%s\n", blockSeparator, encoded, blockSeparator, text); err != nil {
			return err
		}
	}
	return nil
}

// WriteChunkFile persists chunks to the given path in the chunk store format.
func WriteChunkFile(path string, chunks []core.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBlocks(f, chunks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadBlocks parses a persisted chunk stream into blocks. A block whose front
// matter fails to parse is logged and skipped together with its content;
// parsing continues with the remaining blocks. The second return value counts
// skipped malformed blocks.
func ReadBlocks(r io.Reader, source string, logger *slog.Logger) ([]Block, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}

	segments := splitSegments(string(raw))

	var blocks []Block
	malformed := 0
	for i := 0; i+1 < len(segments); i += 2 {
		var meta map[string]any
		if err := yaml.Unmarshal([]byte(segments[i]), &meta); err != nil || meta == nil {
			malformed++
			logger.Warn("malformed front matter, skipping block",
				"source", source,
				"block", i/2,
				"err", err)
			continue
		}

		blocks = append(blocks, Block{
			Metadata: meta,
			Content:  strings.TrimSpace(segments[i+1]),
		})
	}

	return blocks, malformed, nil
}

// ReadChunkFile reads a persisted chunk file.
func ReadChunkFile(path string, logger *slog.Logger) ([]Block, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadBlocks(f, path, logger)
}

// splitSegments splits the raw stream on separator lines and drops empty
// leading/trailing segments so the result alternates front matter / content.
func splitSegments(raw string) []string {
	lines := strings.Split(raw, "\n")

	var segments []string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == blockSeparator {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	segments = append(segments, strings.Join(current, "\n"))

	// Trim only the blank segments produced by the file-edge separators.
	// Interior blanks must survive or an empty-content block would steal the
	// next block's front matter and shift every pairing after it.
	for len(segments) > 0 && strings.TrimSpace(segments[0]) == "" {
		segments = segments[1:]
	}
	for len(segments) > 0 && strings.TrimSpace(segments[len(segments)-1]) == "" {
		segments = segments[:len(segments)-1]
	}
	return segments
}
