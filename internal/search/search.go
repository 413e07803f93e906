// Package search queries academic paper backends.
//
// Each backend implements [Provider] and is registered with a [Manager]
// under a short source name ("arxiv", "ieee", "scholar", ...). The
// manager fans a query out to one or all sources, tolerates individual
// backend failures, and merges the results with [papers.Merge].
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nugget/paperscout/internal/papers"
)

// SourceAll selects every source in the manager's default list.
const SourceAll = "all"

// DefaultSources is the fan-out list used for [SourceAll] when none is
// configured.
var DefaultSources = []string{"arxiv", "ieee", "scholar"}

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 15 * time.Second

// Provider is the interface paper search backends implement.
type Provider interface {
	// Name returns the source name the provider is registered under.
	Name() string

	// Search returns papers matching query, most relevant first.
	Search(ctx context.Context, query string) ([]papers.Record, error)
}

// Manager holds the registered providers and performs fan-out searches.
// It is safe for concurrent use once registration is complete.
type Manager struct {
	logger    *slog.Logger
	timeout   time.Duration
	all       []string
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewManager creates a manager. allSources lists the sources queried
// for [SourceAll]; nil uses [DefaultSources]. A non-positive timeout
// uses [DefaultTimeout].
func NewManager(logger *slog.Logger, allSources []string, timeout time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if len(allSources) == 0 {
		allSources = DefaultSources
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	all := make([]string, len(allSources))
	for i, s := range allSources {
		all[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return &Manager{
		logger:    logger.With("component", "search"),
		timeout:   timeout,
		all:       all,
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, replacing any provider with the same name.
func (m *Manager) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[strings.ToLower(p.Name())] = p
}

// Providers returns the registered source names in sorted order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve maps a requested source to the providers to query, in fan-out
// order. Unknown or unregistered names are dropped.
func (m *Manager) resolve(source string) []Provider {
	source = strings.ToLower(strings.TrimSpace(source))
	names := []string{source}
	if source == "" || source == SourceAll {
		names = m.all
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		if p, ok := m.providers[name]; ok {
			out = append(out, p)
		} else {
			m.logger.Debug("source not available", "source", name)
		}
	}
	return out
}

// SearchPapers queries the requested source ("all" or a single source
// name) and returns the merged, de-duplicated, capped result set.
//
// Sources are queried concurrently, each bounded by the manager timeout.
// A failing source is logged and contributes nothing; SearchPapers never
// fails because of a backend. Results keep source order regardless of
// completion order.
func (m *Manager) SearchPapers(ctx context.Context, query, source string) []papers.Record {
	providers := m.resolve(source)
	if len(providers) == 0 {
		return nil
	}

	sets := make([][]papers.Record, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := time.Now()
			recs, err := p.Search(sctx, query)
			if err != nil {
				m.logger.Warn("source search failed",
					"source", p.Name(),
					"query", query,
					"error", err,
				)
				return nil
			}
			m.logger.Debug("source search complete",
				"source", p.Name(),
				"results", len(recs),
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			sets[i] = recs
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return papers.Merge(sets...)
}
