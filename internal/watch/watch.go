// Package watch reports changes to a set of files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces
const DefaultDebounce = 200 * time.Millisecond

// Files calls onChange with the changed paths whenever any of files is
// written, created or renamed, until ctx is cancelled. Parent directories
// are watched so files replaced by editors keep being tracked.
func Files(ctx context.Context, files []string, debounce time.Duration, onChange func([]string)) error {
	if len(files) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", f, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
		logger.LogDebug("watching directory", map[string]interface{}{logger.FieldPath: dir})
	}

	var (
		mu       sync.Mutex
		inFlight sync.WaitGroup
		stopped  bool
		pending  = make(map[string]bool)
		timer    *time.Timer
	)
	flush := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		inFlight.Add(1)
		defer inFlight.Done()
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(changed) > 0 {
			sort.Strings(changed)
			onChange(changed)
		}
	}
	// onChange never runs after Files returns
	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		inFlight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !watched[event.Name] || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			mu.Lock()
			pending[event.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, flush)
			mu.Unlock()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.LogWarn("file watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}
