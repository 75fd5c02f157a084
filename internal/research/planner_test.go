package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"portfolio/pkg/llm/llmtest"
)

func TestPlanQueriesCapsAndDedupes(t *testing.T) {
	provider := llmtest.New(`{"queries": ["a", " A ", "", "b", "c", "d"]}`)
	got, err := planQueries(context.Background(), provider, testItem, 3)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected queries %v", got)
	}

	calls := provider.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0][1].Content, "Node 22 Patch") {
		t.Fatalf("expected item title in prompt, got %#v", calls)
	}
}

func TestPlanQueriesFallback(t *testing.T) {
	provider := llmtest.New()
	provider.PushError(errors.New("unavailable"))
	got, err := planQueries(context.Background(), provider, testItem, 3)
	if err == nil {
		t.Fatalf("expected error to be reported")
	}
	if len(got) != 1 || got[0] != testItem.Title {
		t.Fatalf("expected title fallback, got %v", got)
	}

	got, err = planQueries(context.Background(), llmtest.New(`{"queries": []}`), testItem, 3)
	if err != nil || len(got) != 1 || got[0] != testItem.Title {
		t.Fatalf("expected title fallback for empty plan, got %v, %v", got, err)
	}
}
