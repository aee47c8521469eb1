package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports on-disk changes to loaded artifacts. The serving
// model is never reloaded; a change means the process is running a stale
// model until it is restarted.
type ArtifactWatcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	logger   *zap.Logger
	onChange func(path string)
}

// NewArtifactWatcher watches the parent directories of paths so that
// replace-by-rename is noticed as well as in-place writes.
func NewArtifactWatcher(logger *zap.Logger, paths ...string) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	aw := &ArtifactWatcher{
		watcher: watcher,
		paths:   make(map[string]bool, len(paths)),
		logger:  logger,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		aw.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return aw, nil
}

// OnChange registers a callback run after the warning is logged. Must be
// called before Run.
func (aw *ArtifactWatcher) OnChange(fn func(path string)) {
	aw.onChange = fn
}

// Run blocks until ctx is done, then closes the watcher.
func (aw *ArtifactWatcher) Run(ctx context.Context) {
	defer aw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !aw.paths[abs] {
				continue
			}
			aw.logger.Warn("artifact changed on disk; restart to serve the new model",
				zap.String("path", abs),
				zap.String("op", event.Op.String()))
			if aw.onChange != nil {
				aw.onChange(abs)
			}
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
