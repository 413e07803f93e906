package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nugget/paperscout/internal/papers"
)

// Placeholder stands in for a backend with no public search API. It
// returns a single synthetic record pointing at the backend's own search
// page for the query.
type Placeholder struct {
	name      string
	label     string
	authors   string
	searchURL string
	source    papers.Source
}

// NewIEEEPlaceholder returns the IEEE Xplore placeholder.
func NewIEEEPlaceholder() *Placeholder {
	return &Placeholder{
		name:      "ieee",
		label:     "IEEE",
		authors:   "IEEE Authors",
		searchURL: "https://ieeexplore.ieee.org/search/searchresult.jsp?queryText=",
		source:    papers.SourceIEEE,
	}
}

// NewScholarPlaceholder returns the Google Scholar placeholder.
func NewScholarPlaceholder() *Placeholder {
	return &Placeholder{
		name:      "scholar",
		label:     "Google Scholar",
		authors:   "Scholar Authors",
		searchURL: "https://scholar.google.com/scholar?q=",
		source:    papers.SourceGoogleScholar,
	}
}

func (p *Placeholder) Name() string { return p.name }

func (p *Placeholder) Search(_ context.Context, query string) ([]papers.Record, error) {
	return []papers.Record{{
		Title:   fmt.Sprintf("%s Paper on %s", p.label, query),
		Authors: p.authors,
		Abstract: fmt.Sprintf("Placeholder result for %q. %s has no public search API; "+
			"follow the link to browse matching papers.", query, p.label),
		URL:    p.searchURL + escapeComponent(query),
		Source: p.source,
	}}, nil
}

// escapeComponent percent-encodes s for use as a single query value,
// encoding spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
