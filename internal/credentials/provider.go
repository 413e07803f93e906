package credentials

import (
	"context"
	"sync"
)

// Provider hands out the API key to model clients. It reads the store
// lazily, caches a found key, and drops the cache when the store reports
// a change. A missing key is never cached, so setting one later takes
// effect on the next call.
type Provider struct {
	store   *Store
	changed <-chan struct{}
	cancel  func()

	mu     sync.Mutex
	cached string
}

// NewProvider creates a provider over store. Call Close to release the
// change subscription.
func NewProvider(store *Store) *Provider {
	ch, cancel := store.Subscribe()
	return &Provider{store: store, changed: ch, cancel: cancel}
}

// APIKey returns the current key or [ErrCredentialMissing].
func (p *Provider) APIKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.changed:
		p.cached = ""
	default:
	}
	if p.cached != "" {
		return p.cached, nil
	}

	v, err := p.store.Get(ctx)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrCredentialMissing
	}
	p.cached = v
	return v, nil
}

// Close ends the change subscription.
func (p *Provider) Close() {
	p.cancel()
}
