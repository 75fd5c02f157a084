package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls Google's Gemini API through the genai SDK. The SDK
// returns the whole reply at once, so the stream carries a single chunk.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewGeminiProvider(cfg Config) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.requestTimeout()},
	}
	if cfg.APIURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.APIURL}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (Stream, error) {
	if p.model == "" {
		return nil, errors.New("gemini model is required")
	}
	contents, system := geminiContentsFrom(messages)

	genCfg := &genai.GenerateContentConfig{}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if p.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(p.maxTokens)
	}
	if p.temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(p.temperature))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	return &textStream{text: geminiText(result)}, nil
}

func geminiContentsFrom(messages []Message) ([]*genai.Content, string) {
	var systemParts []string
	out := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case "system":
			systemParts = append(systemParts, message.Content)
			continue
		case "assistant":
			out = append(out, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: message.Content}}})
		default:
			out = append(out, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: message.Content}}})
		}
	}
	return out, strings.Join(systemParts, "\n")
}

func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
