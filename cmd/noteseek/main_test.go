package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	app := &cli.App{
		Name: "noteseek",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("accepts valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			err := app.Run([]string{"noteseek", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := app.Run([]string{"noteseek", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestStoreFlags(t *testing.T) {
	flags := storeFlags()
	require.Len(t, flags, 1)

	dbFlag, ok := flags[0].(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "db", dbFlag.Name)
	assert.True(t, dbFlag.Required)
}

func TestAIFlags(t *testing.T) {
	flags := aiFlags()

	t.Run("host has local default", func(t *testing.T) {
		var hostFlag *cli.StringFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("models have defaults", func(t *testing.T) {
		defaults := map[string]string{
			"embedding-model":  "embeddinggemma",
			"completion-model": "qwen2.5:3b",
		}
		for name, want := range defaults {
			var found *cli.StringFlag
			for _, flag := range flags {
				if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
					found = f
					break
				}
			}
			require.NotNil(t, found, name)
			assert.Equal(t, want, found.Value)
		}
	})
}

func TestConvertCommand(t *testing.T) {
	page := `<html><body>
<span id="title-text">Team Notes</span>
<div id="main-content">
<h1>Sprint 3 / 11 Mar 2024</h1>
<p>Planning went well.</p>
</div>
</body></html>`

	t.Run("converts files into the output directory", func(t *testing.T) {
		dir := t.TempDir()
		inPath := filepath.Join(dir, "notes.html")
		require.NoError(t, os.WriteFile(inPath, []byte(page), 0644))

		outDir := t.TempDir()
		app := newTestApp(t)
		err := app.Run([]string{"noteseek", "convert", "--output-dir", outDir, inPath})
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(outDir, "notes.md"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "# Sprint 3 / 2024-03-11")
	})

	t.Run("walks directories for html files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(page), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("ignored"), 0644))

		outDir := t.TempDir()
		app := newTestApp(t)
		err := app.Run([]string{"noteseek", "convert", "--output-dir", outDir, dir})
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(outDir, "a.md"))
		assert.NoError(t, err)
	})

	t.Run("fails without arguments", func(t *testing.T) {
		app := newTestApp(t)
		err := app.Run([]string{"noteseek", "convert"})
		require.Error(t, err)
	})
}

func TestChunkCommand(t *testing.T) {
	notes := strings.Join([]string{
		"# Sprint 3 / 2024-03-11",
		"## Planning",
		"Reviewed the roadmap.",
		"Assigned owners.",
		"Confirmed scope.",
	}, "\n")

	dir := t.TempDir()
	inPath := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(inPath, []byte(notes), 0644))

	outDir := t.TempDir()
	app := newTestApp(t)
	err := app.Run([]string{"noteseek", "chunk", "--out", outDir, inPath})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outDir, "notes.md.chunks"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "sprint: 3")
	assert.Contains(t, string(content), "Reviewed the roadmap.")
}

func newTestApp(t *testing.T) *cli.App {
	t.Helper()
	return &cli.App{
		Name: "noteseek",
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Action: convertCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-dir"},
				},
			},
			{
				Name:   "chunk",
				Action: chunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "chunks"},
					&cli.IntFlag{Name: "min-lines", Value: 3},
				},
			},
		},
	}
}
