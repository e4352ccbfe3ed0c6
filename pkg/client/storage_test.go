package client

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tenant")
	fs := NewFileStore(path)

	// Missing file reads as no selection.
	v, err := fs.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v != "" {
		t.Errorf("Load() = %q, want empty before first save", v)
	}

	if err := fs.Save("t1"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	v, err = fs.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v != "t1" {
		t.Errorf("Load() = %q, want t1", v)
	}

	if err := fs.Save("t2"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	v, _ = fs.Load()
	if v != "t2" {
		t.Errorf("Load() = %q, want overwritten t2", v)
	}
}
