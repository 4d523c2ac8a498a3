// Package watch reloads the persisted configuration document when it is
// edited outside the application.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events editors emit for one save.
const debounceDelay = 200 * time.Millisecond

// Watcher watches a single file and invokes a callback after it changes.
type Watcher struct {
	path     string
	onChange func() error
}

// New creates a watcher for the file at path.
func New(path string, onChange func() error) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Run watches until the context is canceled. The parent directory is watched
// rather than the file itself: atomic replaces (write-temp-then-rename) drop
// a watch on the file but not on the directory.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Base(w.path)
	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(debounceDelay)
			}
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			if err := w.onChange(); err != nil {
				log.Printf("watch: reload %s: %v", w.path, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		}
	}
}
