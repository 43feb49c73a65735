package compiler

import "fmt"

// DefaultMaxDepth bounds each scope stack.
const DefaultMaxDepth = 100

type whileScope struct {
	start, end int
}

type forScope struct {
	start, end int
	addr       int
	step       Operand
}

type ifScope struct {
	elseLabel, end int
	hasElse        bool
}

// scopeStack pairs construct starts with their ends. Each construct kind
// gets its own stack, so a while may close inside a for as long as every
// stack stays balanced on its own.
type scopeStack[T any] struct {
	kind    string
	limit   int // 0 means unbounded
	entries []T
}

func (s *scopeStack[T]) push(e T) error {
	if s.limit > 0 && len(s.entries) >= s.limit {
		return fmt.Errorf("%s: %w (depth %d)", s.kind, ErrScopeOverflow, s.limit)
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *scopeStack[T]) pop() (T, error) {
	var zero T
	if len(s.entries) == 0 {
		return zero, fmt.Errorf("end of %s without start: %w", s.kind, ErrUnbalanced)
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, nil
}

func (s *scopeStack[T]) top() (*T, error) {
	if len(s.entries) == 0 {
		return nil, fmt.Errorf("no open %s: %w", s.kind, ErrUnbalanced)
	}
	return &s.entries[len(s.entries)-1], nil
}

func (s *scopeStack[T]) depth() int {
	return len(s.entries)
}
