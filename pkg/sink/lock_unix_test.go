//go:build unix

package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateLocksOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.asm")
	first, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Write([]byte("STATUS\n"))

	if _, err := Create(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Create = %v; want ErrLocked", err)
	}

	// The failed attempt must not have truncated the locked file.
	data, _ := os.ReadFile(path)
	if string(data) != "STATUS\n" {
		t.Errorf("locked file changed to %q", data)
	}

	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	second, err := Create(path)
	if err != nil {
		t.Fatalf("Create after release: %v", err)
	}
	second.Close()
}
