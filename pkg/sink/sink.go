// Package sink provides the output file a compilation writes to. The file is
// locked for the life of the sink so two compilations never interleave into
// one output, and it is released exactly once.
package sink

import (
	"errors"
	"fmt"
	"os"
)

// ErrLocked is returned when another process holds the output file.
var ErrLocked = errors.New("output file is locked by another compilation")

type File struct {
	f      *os.File
	path   string
	closed bool
}

// Create opens path for writing, takes an exclusive lock on it and only then
// truncates it.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Truncate(0); err != nil {
		unlock(f)
		f.Close()
		return nil, err
	}
	return &File{f: f, path: path}, nil
}

func (s *File) Path() string { return s.path }

func (s *File) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	return s.f.Write(p)
}

// Close unlocks and closes the file. Only the first call has any effect.
func (s *File) Close() error {
	if s.closed {
		return os.ErrClosed
	}
	s.closed = true
	return errors.Join(unlock(s.f), s.f.Close())
}

// Discard closes the file if needed and removes it, for outputs of failed
// compilations.
func (s *File) Discard() error {
	var err error
	if !s.closed {
		err = s.Close()
	}
	return errors.Join(err, os.Remove(s.path))
}
