package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArtifactWatcherReportsChange(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, DefaultModelFile)
	otherPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(modelPath, []byte(`{"weights":[],"intercept":0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewArtifactWatcher(nil, modelPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	changed := make(chan string, 4)
	watcher.OnChange(func(path string) { changed <- path })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	if err := os.WriteFile(otherPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(modelPath, []byte(`{"weights":[1],"intercept":0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(modelPath)
	select {
	case got := <-changed:
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
