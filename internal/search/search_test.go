package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nugget/paperscout/internal/papers"
)

// mockProvider is a simple test provider.
type mockProvider struct {
	name    string
	results []papers.Record
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(ctx context.Context, _ string) ([]papers.Record, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.results, m.err
}

func rec(title string, src papers.Source) papers.Record {
	return papers.Record{Title: title, Source: src}
}

func newTestManager(providers ...Provider) *Manager {
	mgr := NewManager(nil, nil, time.Second)
	for _, p := range providers {
		mgr.Register(p)
	}
	return mgr
}

func TestSearchPapers_AllKeepsSourceOrder(t *testing.T) {
	mgr := newTestManager(
		// arxiv is slowest but must still come first.
		&mockProvider{name: "arxiv", delay: 20 * time.Millisecond,
			results: []papers.Record{rec("A1", papers.SourceArxiv), rec("A2", papers.SourceArxiv)}},
		&mockProvider{name: "ieee", results: []papers.Record{rec("I1", papers.SourceIEEE)}},
		&mockProvider{name: "scholar", results: []papers.Record{rec("S1", papers.SourceGoogleScholar)}},
	)

	got := mgr.SearchPapers(context.Background(), "q", "all")
	want := []string{"A1", "A2", "I1", "S1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Title, w)
		}
	}
}

func TestSearchPapers_OneSourceFails(t *testing.T) {
	mgr := newTestManager(
		&mockProvider{name: "arxiv", err: errors.New("connection reset")},
		&mockProvider{name: "ieee", results: []papers.Record{rec("I1", papers.SourceIEEE)}},
		&mockProvider{name: "scholar", results: []papers.Record{rec("S1", papers.SourceGoogleScholar)}},
	)

	got := mgr.SearchPapers(context.Background(), "q", "all")
	if len(got) != 2 {
		t.Fatalf("expected 2 records from the healthy sources, got %d", len(got))
	}
	for _, r := range got {
		if r.Source == papers.SourceArxiv {
			t.Errorf("failed source contributed a record: %+v", r)
		}
	}
}

func TestSearchPapers_DedupesAndCaps(t *testing.T) {
	mgr := newTestManager(
		&mockProvider{name: "arxiv", results: []papers.Record{
			rec("Deep Learning", papers.SourceArxiv), rec("B", papers.SourceArxiv),
			rec("C", papers.SourceArxiv), rec("D", papers.SourceArxiv),
		}},
		&mockProvider{name: "ieee", results: []papers.Record{
			rec("deep learning", papers.SourceIEEE), rec("E", papers.SourceIEEE), rec("F", papers.SourceIEEE),
		}},
		&mockProvider{name: "scholar"},
	)

	got := mgr.SearchPapers(context.Background(), "q", "")
	if len(got) != papers.MaxResults {
		t.Fatalf("len = %d, want %d", len(got), papers.MaxResults)
	}
	if got[0].Source != papers.SourceArxiv {
		t.Errorf("first occurrence should win: %+v", got[0])
	}
	if got[4].Title != "E" {
		t.Errorf("got[4] = %q, want E", got[4].Title)
	}
}

func TestSearchPapers_SingleSource(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", results: []papers.Record{rec("A", papers.SourceArxiv)}}
	ieee := &mockProvider{name: "ieee", results: []papers.Record{rec("I", papers.SourceIEEE)}}
	mgr := newTestManager(arxiv, ieee)

	got := mgr.SearchPapers(context.Background(), "q", "IEEE")
	if len(got) != 1 || got[0].Title != "I" {
		t.Fatalf("got %+v", got)
	}
	if arxiv.calls.Load() != 0 {
		t.Error("arxiv should not be queried for source=ieee")
	}
}

func TestSearchPapers_UnknownSource(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", results: []papers.Record{rec("A", papers.SourceArxiv)}}
	mgr := newTestManager(arxiv)

	if got := mgr.SearchPapers(context.Background(), "q", "pubmed"); len(got) != 0 {
		t.Errorf("unknown source should yield nothing, got %+v", got)
	}
	if arxiv.calls.Load() != 0 {
		t.Error("no provider should be called for an unknown source")
	}
}

func TestSearchPapers_TimeoutDropsSlowSource(t *testing.T) {
	mgr := NewManager(nil, []string{"arxiv", "ieee"}, 20*time.Millisecond)
	mgr.Register(&mockProvider{name: "arxiv", delay: time.Second,
		results: []papers.Record{rec("late", papers.SourceArxiv)}})
	mgr.Register(&mockProvider{name: "ieee", results: []papers.Record{rec("I", papers.SourceIEEE)}})

	start := time.Now()
	got := mgr.SearchPapers(context.Background(), "q", "all")
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("slow source was not bounded by the timeout")
	}
	if len(got) != 1 || got[0].Title != "I" {
		t.Errorf("got %+v", got)
	}
}

func TestProviders_Sorted(t *testing.T) {
	mgr := newTestManager(&mockProvider{name: "scholar"}, &mockProvider{name: "arxiv"})
	got := mgr.Providers()
	if len(got) != 2 || got[0] != "arxiv" || got[1] != "scholar" {
		t.Errorf("Providers() = %v", got)
	}
}

func TestPaperTool_Defaults(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", results: []papers.Record{rec("A", papers.SourceArxiv)}}
	mgr := newTestManager(arxiv, &mockProvider{name: "ieee"}, &mockProvider{name: "scholar"})
	tool := NewPaperTool(mgr)

	res, err := tool.Execute(context.Background(), map[string]any{"query": "graphs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Papers) != 1 {
		t.Errorf("missing source should search all, got %+v", res.Papers)
	}

	res, err = tool.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Papers) != 0 {
		t.Errorf("missing query should give an empty result, got %+v", res.Papers)
	}
}

func TestPaperTool_DescriptionListsRegisteredSources(t *testing.T) {
	mgr := newTestManager(&mockProvider{name: "scholar"}, &mockProvider{name: "arxiv"})
	desc := NewPaperTool(mgr).Description()
	if !strings.Contains(desc, `"source": "all|arxiv|scholar"`) {
		t.Errorf("description = %q", desc)
	}
	for _, absent := range []string{"ieee", "semantic", "searxng"} {
		if strings.Contains(desc, absent) {
			t.Errorf("description advertises unregistered source %q: %q", absent, desc)
		}
	}
}

func TestSourceTool_IgnoresSourceParam(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", results: []papers.Record{rec("A", papers.SourceArxiv)}}
	ieee := &mockProvider{name: "ieee", results: []papers.Record{rec("I", papers.SourceIEEE)}}
	mgr := newTestManager(arxiv, ieee)

	tool := NewSourceTool(mgr, "searchArxiv", "arxiv", "arXiv")
	res, _ := tool.Execute(context.Background(), map[string]any{"query": "q", "source": "ieee"})
	if len(res.Papers) != 1 || res.Papers[0].Title != "A" {
		t.Errorf("got %+v", res.Papers)
	}
	if ieee.calls.Load() != 0 {
		t.Error("alias must not consult the source parameter")
	}
}
