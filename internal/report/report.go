// Package report renders a paper result set for people: plain text for
// terminals, Markdown for notes, and a standalone HTML page.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/nugget/paperscout/internal/papers"
)

// Format selects an output rendering.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied name to a Format. "md" is accepted
// as an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, markdown, or html)", s)
}

// Render writes records for query to w in the given format.
func Render(w io.Writer, f Format, query string, records []papers.Record) error {
	switch f {
	case FormatText, "":
		_, err := io.WriteString(w, Text(query, records))
		return err
	case FormatJSON:
		if records == nil {
			records = []papers.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"query": query, "results": records})
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(query, records))
		return err
	case FormatHTML:
		page, err := HTML(query, records)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	}
	return fmt.Errorf("unknown output format %q", f)
}

// Text renders a numbered plain-text list.
func Text(query string, records []papers.Record) string {
	var sb strings.Builder
	if len(records) == 0 {
		fmt.Fprintf(&sb, "No papers found for %q.\n", query)
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d papers for %q\n\n", len(records), query)
	for i, r := range records {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		if r.Authors != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Authors)
		}
		fmt.Fprintf(&sb, "   [%s] %s\n", r.Source, r.URL)
		if r.Abstract != "" {
			fmt.Fprintf(&sb, "   %s\n", truncate(r.Abstract, 300))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Markdown renders the result set as a Markdown document.
func Markdown(query string, records []papers.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Papers: %s\n\n", escapeMarkdown(query))
	if len(records) == 0 {
		sb.WriteString("_No papers found._\n")
		return sb.String()
	}
	for i, r := range records {
		fmt.Fprintf(&sb, "%d. **[%s](%s)**", i+1, escapeMarkdown(r.Title), linkEscaper.Replace(r.URL))
		if r.Authors != "" {
			fmt.Fprintf(&sb, "  \n   %s", escapeMarkdown(r.Authors))
		}
		fmt.Fprintf(&sb, "  \n   _%s_\n", r.Source)
		if r.Abstract != "" {
			fmt.Fprintf(&sb, "\n   > %s\n", escapeMarkdown(truncate(r.Abstract, 500)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// HTML renders the Markdown form to a standalone HTML page. Raw HTML in
// record fields is not passed through.
func HTML(query string, records []papers.Record) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(query, records)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Paperscout results</title></head>
<body style="font-family: sans-serif; font-size: 14px; line-height: 1.5; max-width: 48em;">
%s
</body></html>
`, buf.String()), nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `&lt;`,
	`>`, `&gt;`,
	"\n", " ",
)

var linkEscaper = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
