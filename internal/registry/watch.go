package registry

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever a spec file changes in either
// directory, until ctx is cancelled. onReload, when non-nil, receives
// each reload report. Events are debounced so editors that write in
// several syscalls trigger a single reload.
func (r *Registry) Watch(ctx context.Context, onReload func(*ReloadReport)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range []string{r.userDir, r.projectDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			r.logger.Warn("failed to watch agent directory", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
		}
	}

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpecFile(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", map[string]interface{}{"error": err.Error()})
		case <-timerC:
			timer = nil
			timerC = nil
			report := r.Reload()
			if onReload != nil {
				onReload(report)
			}
		}
	}
}
