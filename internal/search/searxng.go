package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/paperscout/internal/httpkit"
	"github.com/nugget/paperscout/internal/papers"
)

// SearXNG queries a SearXNG instance restricted to its "science"
// category, which aggregates arXiv, Google Scholar, Semantic Scholar and
// similar engines behind one self-hosted endpoint.
type SearXNG struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewSearXNG creates a SearXNG provider. The baseURL should be the root
// URL of the instance (e.g., "http://localhost:8080"), which must have
// the JSON output format enabled.
func NewSearXNG(baseURL string, maxResults int) *SearXNG {
	if maxResults <= 0 {
		maxResults = papers.MaxResults
	}
	return &SearXNG{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(15 * time.Second),
		),
	}
}

func (s *SearXNG) Name() string { return "searxng" }

// searxngResponse is the JSON response from SearXNG's /search endpoint.
type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Engine  string   `json:"engine"`
	Authors []string `json:"authors"`
}

func (s *SearXNG) Search(ctx context.Context, query string) ([]papers.Record, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"categories": {"science"},
	}

	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("searxng: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("searxng: HTTP %d: %s", resp.StatusCode, body)
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}

	results := make([]papers.Record, 0, s.maxResults)
	for _, r := range sr.Results {
		if len(results) >= s.maxResults {
			break
		}
		title := collapseSpace(r.Title)
		if title == "" {
			continue
		}
		results = append(results, papers.Record{
			Title:    title,
			Authors:  strings.Join(r.Authors, ", "),
			Abstract: collapseSpace(r.Content),
			URL:      r.URL,
			Source:   engineSource(r.Engine),
		})
	}

	return results, nil
}

// engineSource maps a SearXNG engine name to a record source tag.
func engineSource(engine string) papers.Source {
	switch strings.ToLower(engine) {
	case "arxiv":
		return papers.SourceArxiv
	case "google scholar":
		return papers.SourceGoogleScholar
	case "semantic scholar":
		return papers.SourceSemanticScholar
	}
	return papers.SourceUnknown
}
