package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/paperscout/internal/httpkit"
	"github.com/nugget/paperscout/internal/papers"
)

// DefaultSemanticScholarURL is the Semantic Scholar Graph API root.
const DefaultSemanticScholarURL = "https://api.semanticscholar.org"

// SemanticScholar queries the Semantic Scholar Graph API paper search.
type SemanticScholar struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewSemanticScholar creates a Semantic Scholar provider. The API key is
// optional; unauthenticated requests share a public rate limit.
func NewSemanticScholar(baseURL, apiKey string, maxResults int) *SemanticScholar {
	if baseURL == "" {
		baseURL = DefaultSemanticScholarURL
	}
	if maxResults <= 0 {
		maxResults = papers.MaxResults
	}
	return &SemanticScholar{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

func (s *SemanticScholar) Name() string { return "semantic" }

type semanticResponse struct {
	Data []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (s *SemanticScholar) Search(ctx context.Context, query string) ([]papers.Record, error) {
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(s.maxResults)},
		"fields": {"title,authors,abstract,url"},
	}
	reqURL := fmt.Sprintf("%s/graph/v1/paper/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("semantic scholar: HTTP %d: %s", resp.StatusCode, body)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("semantic scholar: decode response: %w", err)
	}

	out := make([]papers.Record, 0, len(sr.Data))
	for _, p := range sr.Data {
		title := collapseSpace(p.Title)
		if title == "" {
			continue
		}
		names := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			names = append(names, a.Name)
		}
		link := p.URL
		if link == "" && p.PaperID != "" {
			link = "https://www.semanticscholar.org/paper/" + p.PaperID
		}
		out = append(out, papers.Record{
			Title:    title,
			Authors:  strings.Join(names, ", "),
			Abstract: collapseSpace(p.Abstract),
			URL:      link,
			Source:   papers.SourceSemanticScholar,
		})
	}
	return papers.Cap(out, s.maxResults), nil
}
