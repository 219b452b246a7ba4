package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/loamlabs/noteseek"
	"github.com/loamlabs/noteseek/ai"
	"github.com/loamlabs/noteseek/chunk"
	"github.com/loamlabs/noteseek/group"
	"github.com/loamlabs/noteseek/htmlconv"
	"github.com/loamlabs/noteseek/ingestion"
	"github.com/loamlabs/noteseek/query"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "noteseek",
		Usage: "Metadata-aware retrieval over structured notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert exported HTML notes to markdown",
				ArgsUsage: "<file-or-dir>...",
				Action:    convertCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Directory for the generated markdown files",
					},
				},
			},
			{
				Name:      "chunk",
				Usage:     "Chunk markdown notes into the persisted chunk store",
				ArgsUsage: "<file>...",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Directory for the chunk store files",
						Value: "chunks",
					},
					&cli.IntFlag{
						Name:  "min-lines",
						Usage: "Minimum buffered lines before a chunk is flushed",
						Value: chunk.DefaultMinLines,
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Chunk, group, embed, and index markdown notes",
				ArgsUsage: "<file-or-dir>...",
				Action:    indexCommand,
				Flags: append(storeFlags(), aiFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Ask a question over the indexed notes",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Candidates retrieved before reranking",
						Value: query.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:  "similarity-threshold",
						Usage: "Minimum cosine similarity for a candidate",
						Value: query.DefaultSimilarityThreshold,
					},
					&cli.BoolFlag{
						Name:  "show-sources",
						Usage: "Print the retrieved candidates before the answer",
					},
				),
			},
			{
				Name:   "summary",
				Usage:  "Summarize the indexed documents per sprint",
				Action: summaryCommand,
				Flags:  storeFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storeFlags are shared by commands touching the document store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

// aiFlags are shared by commands needing the embedding or completion services.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringSliceFlag{
			Name:  "required",
			Usage: "Metadata fields every indexed document must carry",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
	)
}

func convertCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one HTML file or directory is required")
	}

	paths, err := collectFiles(c.Args().Slice(), ".html")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no HTML files found")
	}

	for _, path := range paths {
		outPath, err := htmlconv.ConvertFile(path, c.String("output-dir"), nil)
		if err != nil {
			return fmt.Errorf("converting %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Converted %s -> %s\n", path, outPath)
	}
	return nil
}

func chunkCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one markdown file is required")
	}

	chunker, err := chunk.NewChunker(chunk.WithMinLines(c.Int("min-lines")))
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		source := filepath.Base(path)
		chunks := chunker.ProcessDocument(string(content), source)
		outPath := filepath.Join(outDir, source+ingestion.ChunkFileSuffix)
		if err := chunk.WriteChunkFile(outPath, chunks); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "Chunked %s: %d chunks -> %s\n", path, len(chunks), outPath)
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one markdown file or directory is required")
	}

	paths, err := collectFiles(c.Args().Slice(), ".md")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no markdown files found")
	}

	lib, err := noteseek.Open(c.String("db"), noteseek.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	var opts []ingestion.Option
	if required := c.StringSlice("required"); len(required) > 0 {
		grouper, err := group.NewGrouper(required)
		if err != nil {
			return err
		}
		opts = append(opts, ingestion.WithGrouper(grouper))
	}

	pipeline, err := lib.NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stats, err := pipeline.IndexFiles(context.Background(), paths)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Indexed %d files: %d chunks, %d documents, %d chunks skipped, %d files failed\n",
		stats.Files, stats.Chunks, stats.Documents, stats.SkippedChunks, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d files failed to index", stats.Failed)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	lib, err := noteseek.Open(c.String("db"), noteseek.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	engine, err := lib.NewEngine(
		query.WithTopK(c.Int("top-k")),
		query.WithSimilarityThreshold(float32(c.Float64("similarity-threshold"))),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if c.Bool("show-sources") {
		candidates, meta, err := engine.Retrieve(ctx, question)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Enriched query: %s\n\n", meta.EnrichedQuery)
		for i, candidate := range candidates {
			fmt.Fprintf(os.Stderr, "--- candidate %d (score %.3f) ---\n%s\n\n", i+1, candidate.Score, candidate.Text)
		}
	}

	answer, err := engine.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func summaryCommand(c *cli.Context) error {
	lib, err := noteseek.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	documents, err := lib.DocumentRepository().ListDocuments(context.Background())
	if err != nil {
		return err
	}

	summary := group.BuildSummary(documents)
	if _, err := summary.WriteTo(os.Stdout); err != nil {
		return err
	}
	return nil
}

// collectFiles expands directories into the files inside them carrying the
// given extension. Plain file arguments are kept as-is.
func collectFiles(args []string, ext string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
