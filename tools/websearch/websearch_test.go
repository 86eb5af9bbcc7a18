package websearch

import (
	"context"
	"strings"
	"testing"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/models"
)

func TestNewSearcher_DisabledWithoutCredentials(t *testing.T) {
	s := NewSearcher(config.WebSearchConfig{Enabled: true})
	if s.Enabled() {
		t.Fatalf("expected searcher disabled without credentials")
	}
	results, err := s.Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("expected no error from disabled searcher, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results from disabled searcher, got %d", len(results))
	}
}

func TestFormat_Empty(t *testing.T) {
	got := Format(nil)
	if got != "No relevant web search results found." {
		t.Fatalf("expected fixed empty message, got %q", got)
	}
}

func TestFormat_NumbersAndSources(t *testing.T) {
	results := []models.WebResult{
		{Title: "Papaya seeds", Snippet: "Buy papaya seeds online", DisplayLink: "seeds.example.com"},
		{Snippet: "second", Link: "https://example.org/x"},
	}
	got := Format(results)
	if !strings.Contains(got, "1. **Papaya seeds**") {
		t.Fatalf("expected numbered title, got %q", got)
	}
	if !strings.Contains(got, "Source: seeds.example.com") {
		t.Fatalf("expected display link as source, got %q", got)
	}
	if !strings.Contains(got, "2. **No title**") {
		t.Fatalf("expected fallback title, got %q", got)
	}
}

func TestSources_DistinctFirstSeen(t *testing.T) {
	results := []models.WebResult{
		{DisplayLink: "a.com"},
		{DisplayLink: "b.com"},
		{DisplayLink: "a.com"},
		{Link: "https://c.com/page"},
	}
	got := Sources(results)
	want := []string{"a.com", "b.com", "https://c.com/page"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sources, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected source %q at %d, got %q", want[i], i, got[i])
		}
	}
}
