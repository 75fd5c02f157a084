package llm

import (
	"context"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434/v1"

// OllamaProvider talks to a local Ollama through its OpenAI-compatible
// endpoint. No API key is sent when none is configured.
type OllamaProvider struct {
	openai *OpenAIProvider
}

// NewOllamaProvider accepts either the server root or the /v1 endpoint as
// LLM_API_URL; "http://gpu-box:11434" and "http://gpu-box:11434/v1" are
// equivalent.
func NewOllamaProvider(cfg Config) *OllamaProvider {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	switch {
	case base == "":
		base = defaultOllamaURL
	case !strings.HasSuffix(base, "/v1"):
		base += "/v1"
	}
	cfg.APIURL = base
	inner := NewOpenAIProvider(cfg)
	inner.name = "ollama"
	return &OllamaProvider{openai: inner}
}

func (p *OllamaProvider) Complete(ctx context.Context, messages []Message) (Stream, error) {
	return p.openai.Complete(ctx, messages)
}
