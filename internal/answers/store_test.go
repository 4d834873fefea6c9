package answers

import (
	"testing"

	"github.com/google/uuid"
)

func TestCountAnswered(t *testing.T) {
	s := New()
	if got := s.CountAnswered(); got != 0 {
		t.Fatalf("fresh store CountAnswered() = %d, want 0", got)
	}

	q1, q2 := uuid.New(), uuid.New()
	s.Set(q1, "x")
	s.Set(q2, "")

	if got := s.CountAnswered(); got != 1 {
		t.Errorf("CountAnswered() = %d, want 1", got)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestGetAndOverwrite(t *testing.T) {
	s := New()
	q := uuid.New()

	if _, ok := s.Get(q); ok {
		t.Fatal("Get() on unset question reported ok")
	}

	s.Set(q, "TRUE")
	s.Set(q, "FALSE")

	v, ok := s.Get(q)
	if !ok || v != "FALSE" {
		t.Errorf("Get() = %q, %v; want %q, true", v, ok, "FALSE")
	}
}

func TestFromMapSkipsForeignKeys(t *testing.T) {
	q := uuid.New()
	s := FromMap(map[string]string{
		q.String():   "river",
		"started_at": "2026-01-01T00:00:00Z",
	})

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if v, _ := s.Get(q); v != "river" {
		t.Errorf("Get() = %q, want %q", v, "river")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New()
	q := uuid.New()
	s.Set(q, "a")

	snap := s.Snapshot()
	snap[q] = "b"

	if v, _ := s.Get(q); v != "a" {
		t.Errorf("store mutated through snapshot: got %q", v)
	}
}

func TestRestrict(t *testing.T) {
	keep, drop := uuid.New(), uuid.New()
	s := New()
	s.Set(keep, "a")
	s.Set(drop, "b")

	if n := s.Restrict([]uuid.UUID{keep}); n != 1 {
		t.Errorf("Restrict() dropped %d, want 1", n)
	}
	if _, ok := s.Get(drop); ok {
		t.Error("dropped question still present")
	}
	if _, ok := s.Get(keep); !ok {
		t.Error("kept question missing")
	}
}
