package search

import (
	"context"
	"strings"

	"github.com/nugget/paperscout/internal/tools"
)

// ToolName is the primary paper search tool advertised to the model.
const ToolName = "SEARCH_PAPERS"

// PaperTool exposes [Manager.SearchPapers] as an agent tool. A tool with
// a fixed source ignores the "source" parameter.
type PaperTool struct {
	mgr         *Manager
	name        string
	description string
	source      string
}

// NewPaperTool returns the SEARCH_PAPERS tool, which takes "query" and an
// optional "source" parameter. The advertised sources are the ones
// registered on mgr when the tool is built.
func NewPaperTool(mgr *Manager) *PaperTool {
	sources := append([]string{SourceAll}, mgr.Providers()...)
	return &PaperTool{
		mgr:  mgr,
		name: ToolName,
		description: `Search academic papers. Params: {"query": "<search terms>", ` +
			`"source": "` + strings.Join(sources, "|") + `"}. Source defaults to all.`,
	}
}

// NewSourceTool returns a single-source alias of SEARCH_PAPERS that only
// takes "query".
func NewSourceTool(mgr *Manager, name, source, label string) *PaperTool {
	return &PaperTool{
		mgr:         mgr,
		name:        name,
		description: `Search ` + label + ` papers. Params: {"query": "<search terms>"}.`,
		source:      source,
	}
}

func (t *PaperTool) Name() string        { return t.name }
func (t *PaperTool) Description() string { return t.description }

// Execute runs the search. A missing query yields an empty result.
func (t *PaperTool) Execute(ctx context.Context, params map[string]any) (tools.Result, error) {
	query := tools.StringParam(params, "query")
	if query == "" {
		return tools.Result{}, nil
	}

	source := t.source
	if source == "" {
		source = tools.StringParam(params, "source")
	}
	if source == "" {
		source = SourceAll
	}

	return tools.Result{Papers: t.mgr.SearchPapers(ctx, query, source)}, nil
}

// RegisterTools adds SEARCH_PAPERS and its single-source aliases
// (searchArxiv, searchIEEE, searchGoogleScholar) to reg.
func RegisterTools(reg *tools.Registry, mgr *Manager) error {
	for _, t := range []tools.Tool{
		NewPaperTool(mgr),
		NewSourceTool(mgr, "searchArxiv", "arxiv", "arXiv"),
		NewSourceTool(mgr, "searchIEEE", "ieee", "IEEE Xplore"),
		NewSourceTool(mgr, "searchGoogleScholar", "scholar", "Google Scholar"),
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
