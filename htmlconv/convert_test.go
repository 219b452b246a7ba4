package htmlconv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head><title>export</title></head>
<body>
<span id="title-text"> Daily Notes </span>
<div id="main-content">
  <h1>Sprint 3 / Week of 11 Mar 2024</h1>
  <h2>Planning on 11 Mar 2024</h2>
  <p>Discussed the <b>API</b> split.</p>
  <p>   </p>
  <ul class="inline-task-list">
    <li class="checked">Write the design doc</li>
    <li>Review the schema</li>
  </ul>
  <ul>
    <li>Plain bullet</li>
  </ul>
</div>
</body>
</html>`

func TestConvert(t *testing.T) {
	markdown, err := Convert(strings.NewReader(samplePage))
	require.NoError(t, err)

	t.Run("title becomes level-1 header", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(markdown, "# Daily Notes\n"))
	})

	t.Run("header levels preserved and dates normalized", func(t *testing.T) {
		assert.Contains(t, markdown, "# Sprint 3 / Week of 2024-03-11\n")
		assert.Contains(t, markdown, "## Planning on 2024-03-11\n")
	})

	t.Run("paragraph text flattened", func(t *testing.T) {
		assert.Contains(t, markdown, "Discussed the API split.\n\n")
	})

	t.Run("empty paragraphs dropped", func(t *testing.T) {
		assert.NotContains(t, markdown, "\n\n\n\n")
	})

	t.Run("task list becomes checkboxes", func(t *testing.T) {
		assert.Contains(t, markdown, "- [x] Write the design doc\n")
		assert.Contains(t, markdown, "- [ ] Review the schema\n")
	})

	t.Run("plain list keeps dashes", func(t *testing.T) {
		assert.Contains(t, markdown, "- Plain bullet\n")
	})
}

func TestConvert_NoMainContent(t *testing.T) {
	_, err := Convert(strings.NewReader("<html><body><p>loose text</p></body></html>"))
	assert.ErrorIs(t, err, ErrNoMainContent)
}

func TestConvert_UnparsableDateLeftAlone(t *testing.T) {
	page := `<html><body><div id="main-content"><h2>Meeting on 45 Zzz 2024</h2></div></body></html>`
	markdown, err := Convert(strings.NewReader(page))
	require.NoError(t, err)
	assert.Contains(t, markdown, "## Meeting on 45 Zzz 2024\n")
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "notes.html")
	require.NoError(t, os.WriteFile(inPath, []byte(samplePage), 0644))

	t.Run("writes next to input by default", func(t *testing.T) {
		outPath, err := ConvertFile(inPath, "", nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "notes.md"), outPath)

		content, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "# Daily Notes")
	})

	t.Run("honors output directory", func(t *testing.T) {
		outDir := filepath.Join(dir, "md")
		outPath, err := ConvertFile(inPath, outDir, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outDir, "notes.md"), outPath)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := ConvertFile(filepath.Join(dir, "missing.html"), "", nil)
		assert.Error(t, err)
	})
}
