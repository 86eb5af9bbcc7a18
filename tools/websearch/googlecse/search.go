package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boswallah/course-assistant/models"
)

const customSearchURL = "https://www.googleapis.com/customsearch/v1"

// Search queries the Google Custom Search JSON API.
// https://developers.google.com/custom-search/v1/overview
type Search struct {
	apiKey     string
	engineID   string
	safeSearch string
	httpClient *http.Client
}

func NewSearch(apiKey, engineID, safeSearch string, timeout time.Duration) *Search {
	if safeSearch == "" {
		safeSearch = "active"
	}
	return &Search{
		apiKey:     apiKey,
		engineID:   engineID,
		safeSearch: safeSearch,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *Search) Enabled() bool { return s.apiKey != "" && s.engineID != "" }

type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (s *Search) Search(ctx context.Context, query string, n int) ([]models.WebResult, error) {
	if !s.Enabled() || query == "" {
		return nil, nil
	}
	if n <= 0 {
		n = 3
	}
	if n > 10 { // API limit per request
		n = 10
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", n))
	params.Set("safe", s.safeSearch)

	req, err := http.NewRequestWithContext(ctx, "GET", customSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status: %d", resp.StatusCode)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	out := make([]models.WebResult, 0, len(raw.Items))
	for i, item := range raw.Items {
		if i >= n {
			break
		}
		out = append(out, models.WebResult{
			Title:       item.Title,
			Snippet:     item.Snippet,
			Link:        item.Link,
			DisplayLink: item.DisplayLink,
		})
	}
	return out, nil
}
