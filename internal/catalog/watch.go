package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the path of every .ts file in dir that is written,
// created or renamed into place. Bursts of events for the same file within
// debounce are collapsed into one call. Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration, fn func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Hidden names are temp files from Save
			if !strings.EqualFold(filepath.Ext(event.Name), ".ts") || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Catalog watcher error", "err", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) >= debounce {
					delete(pending, path)
					fn(path)
				}
			}
		}
	}
}
