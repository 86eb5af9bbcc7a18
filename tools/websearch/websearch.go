package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/tools/websearch/googlecse"
)

// Searcher is the web search collaborator. Implementations with missing
// credentials report Enabled() == false and return empty result lists
// without error.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]models.WebResult, error)
	Enabled() bool
}

// NewSearcher builds a Google Custom Search client from configuration. When
// credentials are absent the returned searcher is a disabled no-op.
func NewSearcher(cfg config.WebSearchConfig) Searcher {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return Disabled{}
	}
	return googlecse.NewSearch(cfg.APIKey, cfg.EngineID, cfg.SafeSearch, cfg.Timeout)
}

// Disabled is the no-op searcher used when credentials are not configured.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Search(ctx context.Context, query string, n int) ([]models.WebResult, error) {
	return nil, nil
}

// Format renders results for inclusion in an LLM prompt.
func Format(results []models.WebResult) string {
	if len(results) == 0 {
		return "No relevant web search results found."
	}

	var sb strings.Builder
	sb.WriteString("Web Search Results:\n\n")
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No description available"
		}
		source := r.DisplayLink
		if source == "" {
			source = r.Link
		}
		if source == "" {
			source = "Unknown source"
		}
		sb.WriteString(fmt.Sprintf("%d. **%s**\n   Source: %s\n   %s\n\n", i+1, title, source, snippet))
	}
	return sb.String()
}

// Sources returns the distinct display links of results, in first-seen order.
func Sources(results []models.WebResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range results {
		source := r.DisplayLink
		if source == "" {
			source = r.Link
		}
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		out = append(out, source)
	}
	return out
}
