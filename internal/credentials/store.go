// Package credentials stores the model API key. The key is persisted in
// the operational state store, falls back to a configured value (usually
// taken from the environment), and announces changes so cached copies
// can be dropped.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nugget/paperscout/internal/events"
	"github.com/nugget/paperscout/internal/opstate"
)

// ErrCredentialMissing is returned when no API key is stored or
// configured.
var ErrCredentialMissing = errors.New("API key not configured. Please set your Gemini API key with `paperscout key set`.")

// namespace is the opstate namespace holding credentials.
const namespace = "credentials"

// Origin values reported by [Store.Status].
const (
	OriginStored   = "stored"
	OriginFallback = "fallback"
	OriginNone     = "none"
)

// Status describes where the effective key comes from. It never carries
// the key itself.
type Status struct {
	Configured bool      `json:"configured"`
	Origin     string    `json:"origin"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// Store reads and writes the API key under a fixed name.
type Store struct {
	state    *opstate.Store
	keyName  string
	fallback string
	bus      *events.Bus

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewStore creates a credential store. fallback is returned by Get when
// nothing is stored. bus may be nil.
func NewStore(state *opstate.Store, keyName, fallback string, bus *events.Bus) *Store {
	return &Store{
		state:    state,
		keyName:  keyName,
		fallback: strings.TrimSpace(fallback),
		bus:      bus,
		subs:     make(map[chan struct{}]struct{}),
	}
}

// KeyName returns the name the key is stored under.
func (s *Store) KeyName() string { return s.keyName }

// Get returns the stored key, or the fallback when none is stored. An
// empty string with a nil error means no key is available.
func (s *Store) Get(ctx context.Context) (string, error) {
	v, err := s.state.Get(ctx, namespace, s.keyName)
	if err != nil {
		return "", fmt.Errorf("read credential %s: %w", s.keyName, err)
	}
	if v != "" {
		return v, nil
	}
	return s.fallback, nil
}

// Status reports whether a key is available and where it comes from.
func (s *Store) Status(ctx context.Context) (Status, error) {
	e, ok, err := s.state.Lookup(ctx, namespace, s.keyName)
	if err != nil {
		return Status{}, fmt.Errorf("read credential %s: %w", s.keyName, err)
	}
	switch {
	case ok && e.Value != "":
		return Status{Configured: true, Origin: OriginStored, UpdatedAt: e.UpdatedAt}, nil
	case s.fallback != "":
		return Status{Configured: true, Origin: OriginFallback}, nil
	}
	return Status{Origin: OriginNone}, nil
}

// Set stores value, replacing any previous key, and notifies
// subscribers. An empty value removes the stored key.
func (s *Store) Set(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)

	var err error
	if value == "" {
		err = s.state.Delete(ctx, namespace, s.keyName)
	} else {
		err = s.state.Set(ctx, namespace, s.keyName, value)
	}
	if err != nil {
		return fmt.Errorf("store credential %s: %w", s.keyName, err)
	}

	s.notify()
	s.bus.Emit(events.SourceCredentials, events.KindCredentialChanged, map[string]any{
		"key":     s.keyName,
		"cleared": value == "",
	})
	return nil
}

// Subscribe returns a channel that receives a signal after every Set,
// and a function that ends the subscription. Signals coalesce: a
// subscriber that has not drained the channel sees one pending signal.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
