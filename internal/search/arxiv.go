package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/paperscout/internal/httpkit"
	"github.com/nugget/paperscout/internal/papers"
)

// DefaultArxivURL is the arXiv export API query endpoint.
const DefaultArxivURL = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv export API and decodes its Atom feed.
type Arxiv struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewArxiv creates an arXiv provider. An empty baseURL uses
// [DefaultArxivURL]; a non-positive maxResults uses [papers.MaxResults].
func NewArxiv(baseURL string, maxResults int) *Arxiv {
	if baseURL == "" {
		baseURL = DefaultArxivURL
	}
	if maxResults <= 0 {
		maxResults = papers.MaxResults
	}
	return &Arxiv{
		baseURL:    baseURL,
		maxResults: maxResults,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(20*time.Second),
			httpkit.WithRetry(2, 500*time.Millisecond),
		),
	}
}

func (a *Arxiv) Name() string { return "arxiv" }

// arxivFeed is the subset of the Atom feed returned by /api/query.
type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string        `xml:"id"`
	Title   string        `xml:"title"`
	Summary string        `xml:"summary"`
	Authors []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

func (a *Arxiv) Search(ctx context.Context, query string) ([]papers.Record, error) {
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(a.maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	reqURL := a.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: build request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("arxiv: HTTP %d: %s", resp.StatusCode, body)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("arxiv: decode feed: %w", err)
	}
	return feed.records(), nil
}

// records converts feed entries, skipping entries with no title or id.
func (f arxivFeed) records() []papers.Record {
	out := make([]papers.Record, 0, len(f.Entries))
	for _, e := range f.Entries {
		title := collapseSpace(e.Title)
		id := strings.TrimSpace(e.ID)
		if title == "" || id == "" {
			continue
		}
		names := make([]string, 0, len(e.Authors))
		for _, au := range e.Authors {
			if n := collapseSpace(au.Name); n != "" {
				names = append(names, n)
			}
		}
		out = append(out, papers.Record{
			Title:    title,
			Authors:  strings.Join(names, ", "),
			Abstract: collapseSpace(e.Summary),
			URL:      id,
			Source:   papers.SourceArxiv,
		})
	}
	return out
}

// collapseSpace trims s and folds internal whitespace runs (including the
// line breaks arXiv puts inside titles) to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
