package inmem_test

import (
	"context"
	"errors"
	"testing"

	"classroom/internal/classroom"
	"classroom/internal/classroom/adapter/inmem"
)

func TestStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()

	if err := s.Set(ctx, "students", "s1", map[string]any{"a": 1.0, "b": 2.0}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "students", "s1", map[string]any{"c": 3.0}); err != nil {
		t.Fatalf("set: %v", err)
	}

	fields, ok, err := s.Get(ctx, "students", "s1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if _, stale := fields["a"]; stale {
		t.Error("set must fully overwrite: field 'a' should be gone")
	}
	if fields["c"] != 3.0 {
		t.Errorf("expected c=3, got %v", fields["c"])
	}
}

func TestStoreUpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()

	s.Set(ctx, "students", "s1", map[string]any{"a": 1.0, "b": 2.0})
	if err := s.Update(ctx, "students", "s1", map[string]any{"b": 3.0}); err != nil {
		t.Fatalf("update: %v", err)
	}

	fields, _, _ := s.Get(ctx, "students", "s1")
	if fields["a"] != 1.0 || fields["b"] != 3.0 {
		t.Errorf("expected {a:1 b:3}, got %v", fields)
	}
}

func TestStoreUpdateMissingFails(t *testing.T) {
	s := inmem.NewStore()
	if err := s.Update(context.Background(), "students", "nope", map[string]any{"a": 1.0}); err == nil {
		t.Error("updating an absent document must fail")
	}
}

func TestStoreFindByFieldLimit(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()

	s.Set(ctx, "assignments", "a1", map[string]any{"subject": "math"})
	s.Set(ctx, "assignments", "a2", map[string]any{"subject": "math"})
	s.Set(ctx, "assignments", "a3", map[string]any{"subject": "art"})

	docs, err := s.FindByField(ctx, "assignments", "subject", "math", 0)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 matches, got %d", len(docs))
	}

	docs, _ = s.FindByField(ctx, "assignments", "subject", "math", 1)
	if len(docs) != 1 {
		t.Errorf("expected limit to cap at 1, got %d", len(docs))
	}

	docs, _ = s.FindByField(ctx, "assignments", "subject", "biology", 0)
	if len(docs) != 0 {
		t.Errorf("expected no matches, got %d", len(docs))
	}
}

func TestStoreReadsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()
	s.Set(ctx, "courses", "c1", map[string]any{"name": "algebra"})

	fields, _, _ := s.Get(ctx, "courses", "c1")
	fields["name"] = "mutated"

	again, _, _ := s.Get(ctx, "courses", "c1")
	if again["name"] != "algebra" {
		t.Error("mutating a returned field map must not affect the store")
	}
}

func TestStoreTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()
	s.Set(ctx, "students", "s1", map[string]any{"name": "x"})

	err := s.RunTransaction(ctx, func(tx classroom.Tx) error {
		if _, ok, _ := tx.Get("students", "s1"); !ok {
			t.Error("expected s1 visible inside transaction")
		}
		if err := tx.Delete("students", "s1"); err != nil {
			return err
		}
		// Staged delete is visible through the handle but not committed yet.
		if _, ok, _ := tx.Get("students", "s1"); ok {
			t.Error("staged delete should be visible through the handle")
		}
		return tx.Set("students", "s2", map[string]any{"name": "y"})
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "students", "s1"); ok {
		t.Error("s1 should be deleted after commit")
	}
	if _, ok, _ := s.Get(ctx, "students", "s2"); !ok {
		t.Error("s2 should exist after commit")
	}
}

func TestStoreTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := inmem.NewStore()
	s.Set(ctx, "students", "s1", map[string]any{"name": "x"})

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(tx classroom.Tx) error {
		tx.Delete("students", "s1")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	if _, ok, _ := s.Get(ctx, "students", "s1"); !ok {
		t.Error("failed transaction must not apply staged writes")
	}
}
