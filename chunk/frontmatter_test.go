package chunk

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamlabs/noteseek/core"
)

func TestWriteBlocks_ReadBlocks(t *testing.T) {
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	chunks := []core.Chunk{
		{
			Content: "- reviewed backlog\n- assigned stories",
			Metadata: core.ChunkMetadata{
				Date:          &date,
				Sprint:        3,
				Week:          "March 11",
				Activity:      "Planning",
				ParentHeaders: []string{"Sprint 3"},
			},
			SourceFile: "notes.md",
			HeaderPath: []string{"Sprint 3", "Planning"},
		},
		{
			Content:    "a loose note",
			SourceFile: "notes.md",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBlocks(&buf, chunks))

	blocks, malformed, err := ReadBlocks(&buf, "notes.md", nil)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, blocks, 2)

	first := blocks[0]
	assert.Equal(t, 3, first.Metadata["sprint"])
	assert.Equal(t, "2024-03-11", first.Metadata["date"])
	assert.Equal(t, "Planning", first.Metadata["activity"])
	assert.Equal(t, "notes.md", first.Metadata["source_file"])
	// The stored content carries the embedding context prefix.
	assert.True(t, strings.HasPrefix(first.Content, "Sprint 3 | Date: 2024-03-11 | Activity: Planning\n"))
	assert.Contains(t, first.Content, "- reviewed backlog")

	second := blocks[1]
	assert.NotContains(t, second.Metadata, "sprint")
	assert.Equal(t, "a loose note", second.Content)
}

func TestReadBlocks_MalformedBlockIsIsolated(t *testing.T) {
	raw := strings.Join([]string{
		"---",
		"sprint: 3",
		"activity: Planning",
		"---",
		"good content",
		"---",
		"{ this is : not [ valid yaml",
		"---",
		"orphaned content",
		"---",
		"sprint: 4",
		"---",
		"more good content",
		"---",
	}, "\n")

	blocks, malformed, err := ReadBlocks(strings.NewReader(raw), "broken.md", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, malformed)
	require.Len(t, blocks, 2)
	assert.Equal(t, "good content", blocks[0].Content)
	assert.Equal(t, 4, blocks[1].Metadata["sprint"])
	assert.Equal(t, "more good content", blocks[1].Content)
}

func TestReadBlocks_EmptyContentKeepsPairing(t *testing.T) {
	raw := strings.Join([]string{
		"---",
		"sprint: 3",
		"---",
		"---",
		"sprint: 4",
		"---",
		"real content",
	}, "\n")

	blocks, malformed, err := ReadBlocks(strings.NewReader(raw), "sparse.md", nil)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, blocks, 2)

	// The empty block must not swallow the next block's front matter.
	assert.Equal(t, 3, blocks[0].Metadata["sprint"])
	assert.Empty(t, blocks[0].Content)
	assert.Equal(t, 4, blocks[1].Metadata["sprint"])
	assert.Equal(t, "real content", blocks[1].Content)
}

func TestWriteBlocks_EmptyContentRoundTrip(t *testing.T) {
	chunks := []core.Chunk{
		{Content: "", SourceFile: "notes.md"},
		{Content: "beta", SourceFile: "notes.md"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBlocks(&buf, chunks))

	blocks, malformed, err := ReadBlocks(&buf, "notes.md", nil)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, blocks, 2)
	assert.Empty(t, blocks[0].Content)
	assert.Equal(t, "beta", blocks[1].Content)
}

func TestReadBlocks_Empty(t *testing.T) {
	blocks, malformed, err := ReadBlocks(strings.NewReader(""), "empty.md", nil)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	assert.Empty(t, blocks)
}

func TestContextPrefix_PresentFieldsOnly(t *testing.T) {
	chunk := &core.Chunk{
		Metadata: core.ChunkMetadata{Activity: "Standup"},
	}
	assert.Equal(t, "Activity: Standup", ContextPrefix(chunk))

	chunk.Metadata.Sprint = 2
	assert.Equal(t, "Sprint 2 | Activity: Standup", ContextPrefix(chunk))

	assert.Empty(t, ContextPrefix(&core.Chunk{}))
}

func TestWriteChunkFile_ReadChunkFile(t *testing.T) {
	path := t.TempDir() + "/notes_chunks.md"
	chunks := []core.Chunk{
		{Content: "alpha", SourceFile: "notes.md"},
		{Content: "beta", SourceFile: "notes.md"},
	}

	require.NoError(t, WriteChunkFile(path, chunks))

	blocks, malformed, err := ReadChunkFile(path, nil)
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, blocks, 2)
	assert.Equal(t, "alpha", blocks[0].Content)
	assert.Equal(t, "beta", blocks[1].Content)
}
