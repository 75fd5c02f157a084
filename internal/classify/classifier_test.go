package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"portfolio/pkg/llm/llmtest"
)

const question = "Is this an urgent security or release announcement?"

func TestClassifyVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		approved bool
		wantErr  bool
	}{
		{"approved", `{"approved": true, "reason": "security fix"}`, true, false},
		{"rejected", `{"approved": false, "reason": "marketing"}`, false, false},
		{"chatter around object", "Verdict:\n{\"approved\": true, \"reason\": \"ok\",}\nThanks", true, false},
		{"missing field", `{"reason": "unsure"}`, false, true},
		{"not json", "yes", false, true},
		{"wrong type", `{"approved": "yes"}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(ClassifierConfig{LLM: llmtest.New(tt.reply), Question: question})
			v, err := c.Classify(context.Background(), Input{Title: "Node 22 Patch", Content: "body"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if v.Approved != tt.approved {
				t.Fatalf("approved = %v, want %v", v.Approved, tt.approved)
			}
		})
	}
}

func TestClassifyFailsClosedOnProviderError(t *testing.T) {
	provider := llmtest.New()
	provider.PushError(errors.New("timeout"))
	c := NewClassifier(ClassifierConfig{LLM: provider, Question: question})

	v, err := c.Classify(context.Background(), Input{Title: "x"})
	if err == nil || v.Approved {
		t.Fatalf("expected rejection with error, got %+v, %v", v, err)
	}
	if !strings.Contains(v.Reason, "timeout") {
		t.Fatalf("expected reason to carry the error, got %q", v.Reason)
	}
}

func TestClassifyPromptCarriesQuestion(t *testing.T) {
	provider := llmtest.New(`{"approved": true, "reason": "ok"}`)
	c := NewClassifier(ClassifierConfig{LLM: provider, Question: question})
	if _, err := c.Classify(context.Background(), Input{Title: "T", Content: strings.Repeat("x", 5000)}); err != nil {
		t.Fatalf("classify: %v", err)
	}
	calls := provider.Calls()
	if !strings.Contains(calls[0][0].Content, question) {
		t.Fatalf("system prompt missing question")
	}
	if n := strings.Count(calls[0][1].Content, "x"); n != maxExcerptRunes {
		t.Fatalf("expected body capped at %d runes, got %d", maxExcerptRunes, n)
	}
}

func TestClassifyRequiresQuestion(t *testing.T) {
	c := NewClassifier(ClassifierConfig{LLM: llmtest.New(`{"approved": true}`)})
	if v, err := c.Classify(context.Background(), Input{}); err == nil || v.Approved {
		t.Fatalf("expected failure without question")
	}
}
