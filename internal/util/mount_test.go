package util

import (
	"path/filepath"
	"testing"
)

func TestStatMountTempDir(t *testing.T) {
	if _, err := StatMount(t.TempDir()); err != nil {
		t.Fatalf("StatMount: %v", err)
	}
}

func TestStatMountMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "not", "created", "setlist.db")

	if _, err := StatMount(missing); err != nil {
		t.Fatalf("expected the nearest parent to be used: %v", err)
	}
}
