package registry

import (
	"errors"
	"testing"
)

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := New()
	if err := r.Register(""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegisterConflictUntilReleased(t *testing.T) {
	r := New()
	if err := r.Register("alice"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register("alice"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	r.Release("alice")
	if err := r.Register("alice"); err != nil {
		t.Fatalf("register after release: %v", err)
	}
}

func TestReleaseUnknownNameIsNoop(t *testing.T) {
	r := New()
	r.Release("ghost")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegisteredReflectsState(t *testing.T) {
	r := New()
	if r.Registered("bob") {
		t.Fatal("bob should not be registered yet")
	}
	if err := r.Register("bob"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Registered("bob") {
		t.Fatal("bob should be registered")
	}
	r.Release("bob")
	if r.Registered("bob") {
		t.Fatal("bob should be released")
	}
}
