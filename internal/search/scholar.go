package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nugget/paperscout/internal/httpkit"
	"github.com/nugget/paperscout/internal/papers"
)

// DefaultScholarURL is the Google Scholar results page.
const DefaultScholarURL = "https://scholar.google.com/scholar"

// maxScholarPage bounds the size of a results page we are willing to parse.
const maxScholarPage = 2 << 20

// ScholarScraper fetches a Google Scholar results page and extracts the
// result blocks. Scholar rate-limits aggressively, so it is opt-in
// (search.scholar.mode: scrape); the default is the placeholder.
type ScholarScraper struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewScholarScraper creates a scraper. An empty baseURL uses
// [DefaultScholarURL].
func NewScholarScraper(baseURL string, maxResults int) *ScholarScraper {
	if baseURL == "" {
		baseURL = DefaultScholarURL
	}
	if maxResults <= 0 {
		maxResults = papers.MaxResults
	}
	return &ScholarScraper{
		baseURL:    baseURL,
		maxResults: maxResults,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(20 * time.Second)),
	}
}

func (s *ScholarScraper) Name() string { return "scholar" }

func (s *ScholarScraper) Search(ctx context.Context, query string) ([]papers.Record, error) {
	reqURL := s.baseURL + "?" + url.Values{"q": {query}, "hl": {"en"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scholar: build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scholar: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 256)
		return nil, fmt.Errorf("scholar: HTTP %d: %s", resp.StatusCode, body)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxScholarPage))
	if err != nil {
		return nil, fmt.Errorf("scholar: parse page: %w", err)
	}

	recs := parseScholarResults(doc)
	return papers.Cap(recs, s.maxResults), nil
}

// parseScholarResults collects every gs_ri result block in document order.
func parseScholarResults(doc *html.Node) []papers.Record {
	var out []papers.Record
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "gs_ri") {
			if r, ok := scholarRecord(n); ok {
				out = append(out, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// scholarRecord reads the title (gs_rt), author line (gs_a) and snippet
// (gs_rs) from one result block.
func scholarRecord(block *html.Node) (papers.Record, bool) {
	rec := papers.Record{Source: papers.SourceGoogleScholar}

	if rt := findByClass(block, "gs_rt"); rt != nil {
		if a := findElement(rt, atom.A); a != nil {
			rec.Title = collapseSpace(textContent(a))
			rec.URL = attr(a, "href")
		} else {
			rec.Title = collapseSpace(stripCitationTags(textContent(rt)))
		}
	}
	if rec.Title == "" {
		return papers.Record{}, false
	}

	if ga := findByClass(block, "gs_a"); ga != nil {
		line := collapseSpace(textContent(ga))
		if i := strings.Index(line, " - "); i >= 0 {
			line = line[:i]
		}
		rec.Authors = line
	}
	if rs := findByClass(block, "gs_rs"); rs != nil {
		rec.Abstract = collapseSpace(textContent(rs))
	}
	return rec, true
}

// stripCitationTags removes the [PDF]/[CITATION]/[BOOK] markers Scholar
// prefixes to link-less titles.
func stripCitationTags(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			break
		}
		s = strings.TrimSpace(s[end+1:])
	}
	return s
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// textContent returns the concatenated text of n and its descendants.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
