package compiler

import (
	"fmt"
	"strings"
)

const (
	// DefaultBaseAddr is the first address handed out to a variable.
	DefaultBaseAddr = 10
	// DefaultMaxVars is the number of variables one program may bind.
	DefaultMaxVars = 100
)

// Binding ties a variable name to its memory address.
type Binding struct {
	Name    string
	Address int
}

// SymbolTable maps variable names to memory addresses.
// Addresses are handed out sequentially from base in first-reference order
// and are never reassigned or freed.
type SymbolTable struct {
	base     int
	capacity int // 0 means unbounded
	bindings []Binding
	index    map[string]int // name -> position in bindings
}

// NewSymbolTable returns a table allocating from base. A capacity of zero
// lets the table grow without limit.
func NewSymbolTable(base, capacity int) *SymbolTable {
	return &SymbolTable{
		base:     base,
		capacity: capacity,
		index:    make(map[string]int),
	}
}

// Resolve returns the address bound to name, binding the next free address
// on first reference.
func (s *SymbolTable) Resolve(name string) (int, error) {
	if i, ok := s.index[name]; ok {
		return s.bindings[i].Address, nil
	}
	if s.capacity > 0 && len(s.bindings) >= s.capacity {
		return 0, fmt.Errorf("binding %q: %w (%d variables)", name, ErrCapacity, s.capacity)
	}

	b := Binding{Name: name, Address: s.base + len(s.bindings)}
	s.index[name] = len(s.bindings)
	s.bindings = append(s.bindings, b)
	return b.Address, nil
}

// Lookup returns the address of name without binding it.
func (s *SymbolTable) Lookup(name string) (int, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.bindings[i].Address, true
}

// Len returns the number of bound variables.
func (s *SymbolTable) Len() int {
	return len(s.bindings)
}

// Bindings returns a copy of the bindings in first-reference order.
func (s *SymbolTable) Bindings() []Binding {
	out := make([]Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// String returns a dump of the table in first-reference order.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.bindings) == 0 {
		sb.WriteString("Variables: (empty)\n")
		return sb.String()
	}
	sb.WriteString("Variables:\n")
	for _, b := range s.bindings {
		fmt.Fprintf(&sb, "  %-20s  Address: %d\n", b.Name, b.Address)
	}
	return sb.String()
}
