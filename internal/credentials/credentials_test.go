package credentials

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nugget/paperscout/internal/events"
	"github.com/nugget/paperscout/internal/opstate"
)

func testStore(t *testing.T, fallback string, bus *events.Bus) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	state, err := opstate.NewStore(db)
	if err != nil {
		t.Fatalf("opstate: %v", err)
	}
	return NewStore(state, "gemini_api_key", fallback, bus)
}

func TestStore_GetEmpty(t *testing.T) {
	s := testStore(t, "", nil)
	v, err := s.Get(context.Background())
	if err != nil || v != "" {
		t.Errorf("Get() = %q, %v; want empty", v, err)
	}

	st, err := s.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Configured || st.Origin != OriginNone {
		t.Errorf("Status() = %+v", st)
	}
}

func TestStore_FallbackAndOverride(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, " env-key ", nil)

	if v, _ := s.Get(ctx); v != "env-key" {
		t.Errorf("Get() = %q, want fallback", v)
	}
	if st, _ := s.Status(ctx); st.Origin != OriginFallback {
		t.Errorf("Origin = %q, want fallback", st.Origin)
	}

	if err := s.Set(ctx, "stored-key"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(ctx); v != "stored-key" {
		t.Errorf("Get() = %q, want stored key", v)
	}
	st, _ := s.Status(ctx)
	if st.Origin != OriginStored || st.UpdatedAt.IsZero() {
		t.Errorf("Status() = %+v", st)
	}

	// Clearing falls back again.
	if err := s.Set(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(ctx); v != "env-key" {
		t.Errorf("after clear Get() = %q, want fallback", v)
	}
}

func TestStore_SetNotifies(t *testing.T) {
	bus := events.New()
	evts := bus.Subscribe(4)
	defer bus.Unsubscribe(evts)

	s := testStore(t, "", bus)
	ch, cancel := s.Subscribe()
	defer cancel()

	if err := s.Set(context.Background(), "k1"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
	select {
	case e := <-evts:
		if e.Kind != events.KindCredentialChanged {
			t.Errorf("event kind = %q", e.Kind)
		}
		for _, v := range e.Data {
			if v == "k1" {
				t.Error("event must not carry the key value")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("no bus event")
	}
}

func TestStore_UnsubscribeStopsSignals(t *testing.T) {
	s := testStore(t, "", nil)
	ch, cancel := s.Subscribe()
	cancel()
	cancel() // idempotent

	s.Set(context.Background(), "k")
	select {
	case <-ch:
		t.Error("cancelled subscriber still signalled")
	default:
	}
}

func TestProvider_Missing(t *testing.T) {
	p := NewProvider(testStore(t, "", nil))
	defer p.Close()

	_, err := p.APIKey(context.Background())
	if !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("err = %v, want ErrCredentialMissing", err)
	}
}

func TestProvider_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "", nil)
	p := NewProvider(s)
	defer p.Close()

	// Missing is not cached: a key set afterwards is picked up.
	if _, err := p.APIKey(ctx); !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("err = %v", err)
	}
	s.Set(ctx, "first")
	if v, err := p.APIKey(ctx); err != nil || v != "first" {
		t.Fatalf("APIKey() = %q, %v", v, err)
	}

	// Writing behind the store's back is invisible while cached.
	s.state.Set(ctx, namespace, "gemini_api_key", "sneaky")
	if v, _ := p.APIKey(ctx); v != "first" {
		t.Errorf("APIKey() = %q, want cached value", v)
	}

	// A Set through the store invalidates the cache.
	s.Set(ctx, "second")
	if v, _ := p.APIKey(ctx); v != "second" {
		t.Errorf("APIKey() = %q, want %q", v, "second")
	}
}
