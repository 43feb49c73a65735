package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateTruncatesAndWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.asm")
	if err := os.WriteFile(path, []byte("old contents that are longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("HALT\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "HALT\n" {
		t.Errorf("file = %q; want %q", data, "HALT\n")
	}
}

func TestCloseOnce(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "out.asm"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := f.Close(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("second Close = %v; want os.ErrClosed", err)
	}
	if _, err := f.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write after Close = %v; want os.ErrClosed", err)
	}
}

func TestDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.asm")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte("partial"))
	if err := f.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Discard: %v", err)
	}
}

func TestDiscardAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.asm")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := f.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Discard: %v", err)
	}
}
