// Package openai implements the ai service interfaces against
// OpenAI-compatible APIs using the langchaingo library. It works with any
// service speaking the OpenAI wire format, including Ollama, LocalAI, and
// vLLM.
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedding, err := provider.Embedder().EmbedText(ctx, "sprint 3 planning notes")
package openai
