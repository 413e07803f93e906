package opstate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)

	val, err := s.Get(context.Background(), "ns", "missing")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if val != "" {
		t.Errorf("Get() = %q, want empty string for missing key", val)
	}

	_, ok, err := s.Lookup(context.Background(), "ns", "missing")
	if err != nil || ok {
		t.Errorf("Lookup() = ok %v, err %v; want not found", ok, err)
	}
}

func TestSetUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "credentials", "gemini_api_key", "v1"); err != nil {
		t.Fatalf("Set(v1) error: %v", err)
	}
	if err := s.Set(ctx, "credentials", "gemini_api_key", "v2"); err != nil {
		t.Fatalf("Set(v2) error: %v", err)
	}

	e, ok, err := s.Lookup(ctx, "credentials", "gemini_api_key")
	if err != nil || !ok {
		t.Fatalf("Lookup() = %v, %v", ok, err)
	}
	if e.Value != "v2" {
		t.Errorf("Value = %q, want %q", e.Value, "v2")
	}
	if time.Since(e.UpdatedAt) > time.Minute {
		t.Errorf("UpdatedAt = %v, want recent", e.UpdatedAt)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Set(ctx, "ns1", "key", "a")
	s.Set(ctx, "ns2", "key", "b")

	if v, _ := s.Get(ctx, "ns1", "key"); v != "a" {
		t.Errorf("ns1/key = %q, want a", v)
	}
	if v, _ := s.Get(ctx, "ns2", "key"); v != "b" {
		t.Errorf("ns2/key = %q, want b", v)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Set(ctx, "ns", "key", "v")
	if err := s.Delete(ctx, "ns", "key"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if v, _ := s.Get(ctx, "ns", "key"); v != "" {
		t.Errorf("after Delete, Get() = %q", v)
	}
	if err := s.Delete(ctx, "ns", "key"); err != nil {
		t.Errorf("deleting a missing key should not error: %v", err)
	}
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.List(ctx, "empty")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("List(empty) = %v, %v", got, err)
	}

	s.Set(ctx, "ns", "b", "2")
	s.Set(ctx, "ns", "a", "1")
	got, err = s.List(ctx, "ns")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Errorf("List() = %v", got)
	}
}
