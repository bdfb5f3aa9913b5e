package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 50*time.Millisecond, func(path string) {
			changed <- path
		})
	}()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"notes.txt", ".catalog-123.ts"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	target := filepath.Join(dir, "qtel_de.ts")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("<TS/>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-changed:
		if got != target {
			t.Errorf("Watch reported %q, want %q", got, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not report the change")
	}

	select {
	case got := <-changed:
		t.Errorf("Unexpected extra event for %q", got)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Watch did not stop after cancel")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, func(string) {})
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}
