package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nugget/paperscout/internal/papers"
)

var sample = []papers.Record{
	{
		Title:    "Attention Is All You Need",
		Authors:  "Vaswani, Shazeer",
		Abstract: "The dominant sequence transduction models...",
		URL:      "http://arxiv.org/abs/1706.03762v7",
		Source:   papers.SourceArxiv,
	},
	{
		Title:  "IEEE Paper on transformers",
		URL:    "https://ieeexplore.ieee.org/search?q=transformers",
		Source: papers.SourceIEEE,
	},
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"json":     FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		" html ":   FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ParseFormat(pdf) should fail")
	}
}

func TestText(t *testing.T) {
	got := Text("transformers", sample)
	for _, want := range []string{
		`2 papers for "transformers"`,
		"1. Attention Is All You Need\n",
		"   Vaswani, Shazeer\n",
		"   [arXiv] http://arxiv.org/abs/1706.03762v7\n",
		"2. IEEE Paper on transformers\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Text missing %q:\n%s", want, got)
		}
	}
}

func TestText_Empty(t *testing.T) {
	if got := Text("nothing", nil); got != "No papers found for \"nothing\".\n" {
		t.Errorf("Text = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown("transformers", sample)
	if !strings.HasPrefix(got, "# Papers: transformers\n\n") {
		t.Errorf("missing heading:\n%s", got)
	}
	if !strings.Contains(got, "1. **[Attention Is All You Need](http://arxiv.org/abs/1706.03762v7)**") {
		t.Errorf("missing linked title:\n%s", got)
	}
	if !strings.Contains(got, "> The dominant sequence") {
		t.Errorf("missing abstract quote:\n%s", got)
	}
}

func TestMarkdown_EscapesFields(t *testing.T) {
	got := Markdown("q", []papers.Record{{Title: "A [draft] *note*", URL: "https://x.org/a (b)", Source: papers.SourceUnknown}})
	if !strings.Contains(got, `A \[draft\] \*note\*`) {
		t.Errorf("title not escaped:\n%s", got)
	}
	if !strings.Contains(got, "(https://x.org/a%20%28b%29)") {
		t.Errorf("url not escaped:\n%s", got)
	}
}

func TestHTML(t *testing.T) {
	records := append([]papers.Record{{
		Title:  "<script>alert(1)</script>",
		URL:    "https://example.org",
		Source: papers.SourceUnknown,
	}}, sample...)

	got, err := HTML("transformers", records)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.HasPrefix(got, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(got, `<a href="http://arxiv.org/abs/1706.03762v7">Attention Is All You Need</a>`) {
		t.Errorf("missing link:\n%s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through:\n%s", got)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, "q", nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var out struct {
		Query   string          `json:"query"`
		Results []papers.Record `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Query != "q" || out.Results == nil || len(out.Results) != 0 {
		t.Errorf("out = %+v", out)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("empty results should encode as []: %s", buf.String())
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, Format("pdf"), "q", sample); err == nil {
		t.Error("expected error")
	}
}
