// Package papers defines the normalized paper record shared by the search
// backends, the tool layer, and the agent, plus the de-duplication and
// capping applied to merged result sets.
package papers

import "strings"

// MaxResults is the number of records a merged search returns.
const MaxResults = 5

// Source identifies the backend a record came from. The string values
// are the display labels users see.
type Source string

const (
	SourceArxiv           Source = "arXiv"
	SourceIEEE            Source = "IEEE"
	SourceGoogleScholar   Source = "Google Scholar"
	SourceSemanticScholar Source = "Semantic Scholar"
	SourceUnknown         Source = "Unknown"
)

// Record is one discovered paper. Records are passed by value and never
// modified after construction.
type Record struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	Source   Source `json:"source"`
}

// Key returns the de-duplication key: the lower-cased title.
func (r Record) Key() string {
	return strings.ToLower(r.Title)
}

// Dedupe drops records whose title matches an earlier record,
// ignoring case. Input order is preserved and the first occurrence wins.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Cap truncates records to at most n entries. n <= 0 returns records
// unchanged.
func Cap(records []Record, n int) []Record {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}

// Merge concatenates the given result sets in order, de-duplicates them,
// and caps the result at MaxResults.
func Merge(sets ...[]Record) []Record {
	var all []Record
	for _, s := range sets {
		all = append(all, s...)
	}
	return Cap(Dedupe(all), MaxResults)
}
