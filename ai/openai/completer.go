package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/loamlabs/noteseek/ai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client llms.Model
	logger *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken("none"),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client: client,
		logger: slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends a prompt to the model and returns its raw text reply.
// Temperature is pinned to zero: both consumers (query enrichment and answer
// synthesis) want deterministic, literal output.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("sending completion request", "promptLength", len(prompt))

	reply, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Error("completion request failed", "err", err)
		return "", err
	}

	return reply, nil
}
