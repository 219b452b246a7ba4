package mock

import (
	"context"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns an empty JSON object.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	callCount int
	// Prompts records every prompt received, in order.
	Prompts []string
}

// NewMockCompleter creates a mock completer.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns the injected reply or an empty JSON object.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.Prompts = append(m.Prompts, prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}

	return "{}", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Reset clears the call count, recorded prompts and custom function.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.Prompts = nil
	m.CompleteFunc = nil
}
