package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	t.Run("FirstReferenceOrder", func(t *testing.T) {
		s := NewSymbolTable(DefaultBaseAddr, DefaultMaxVars)
		a, _ := s.Resolve("a")
		b, _ := s.Resolve("b")
		c, _ := s.Resolve("c")

		if a != 10 || b != 11 || c != 12 {
			t.Errorf("addresses: got %d, %d, %d; want 10, 11, 12", a, b, c)
		}
		if s.Len() != 3 {
			t.Errorf("Len: expected 3, got %d", s.Len())
		}
	})

	t.Run("ReResolveIsStable", func(t *testing.T) {
		s := NewSymbolTable(DefaultBaseAddr, DefaultMaxVars)
		first, _ := s.Resolve("x")
		s.Resolve("y")
		again, _ := s.Resolve("x")

		if first != again {
			t.Errorf("x: first %d, again %d", first, again)
		}
		if s.Len() != 2 {
			t.Errorf("Len: expected 2, got %d", s.Len())
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		s := NewSymbolTable(50, 0)
		s.Resolve("x")

		if addr, ok := s.Lookup("x"); !ok || addr != 50 {
			t.Errorf("Lookup(x) = %d, %v; want 50, true", addr, ok)
		}
		if _, ok := s.Lookup("y"); ok {
			t.Error("Lookup(y) should not bind y")
		}
		if s.Len() != 1 {
			t.Errorf("Len: expected 1, got %d", s.Len())
		}
	})

	t.Run("Capacity", func(t *testing.T) {
		s := NewSymbolTable(DefaultBaseAddr, 2)
		s.Resolve("a")
		s.Resolve("b")

		if _, err := s.Resolve("a"); err != nil {
			t.Errorf("re-resolving a known name in a full table: %v", err)
		}
		_, err := s.Resolve("c")
		if !errors.Is(err, ErrCapacity) {
			t.Fatalf("expected ErrCapacity, got %v", err)
		}
		if !strings.Contains(err.Error(), `"c"`) {
			t.Errorf("error should name the variable: %v", err)
		}
	})

	t.Run("Unbounded", func(t *testing.T) {
		s := NewSymbolTable(0, 0)
		for i := 0; i < 500; i++ {
			name := "v" + strings.Repeat("x", i)
			addr, err := s.Resolve(name)
			if err != nil {
				t.Fatalf("Resolve #%d: %v", i, err)
			}
			if addr != i {
				t.Fatalf("Resolve #%d: got address %d", i, addr)
			}
		}
	})

	t.Run("BindingsIsACopy", func(t *testing.T) {
		s := NewSymbolTable(DefaultBaseAddr, 0)
		s.Resolve("x")
		bs := s.Bindings()
		bs[0].Address = 99

		if addr, _ := s.Lookup("x"); addr != 10 {
			t.Errorf("table changed through Bindings(): x at %d", addr)
		}
	})

	t.Run("String", func(t *testing.T) {
		s := NewSymbolTable(DefaultBaseAddr, 0)
		if got := s.String(); got != "Variables: (empty)\n" {
			t.Errorf("empty dump = %q", got)
		}
		s.Resolve("speed")
		if got := s.String(); !strings.Contains(got, "speed") || !strings.Contains(got, "Address: 10") {
			t.Errorf("dump missing binding: %q", got)
		}
	})
}
