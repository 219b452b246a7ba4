// Package ai defines the interfaces for AI services consumed by noteseek:
// text embedding for semantic search and LLM completion for query enrichment
// and answer synthesis.
//
// The openai subpackage implements these against OpenAI-compatible APIs
// (Ollama, LocalAI, vLLM, OpenAI); the mock subpackage provides deterministic
// test doubles.
package ai
