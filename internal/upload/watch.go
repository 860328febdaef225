package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long Watch waits after the last change before re-running.
const debounce = 200 * time.Millisecond

// Watch runs the uploader once, then again after every burst of plan file
// changes under the root, until ctx is cancelled.
func (u *Uploader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Walk and add all directories
	err = filepath.Walk(u.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != u.root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := u.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	u.log.Info("watching for plan changes", "path", u.root)

	changed := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// If a new directory was created, watch it too
			if event.Op&fsnotify.Create != 0 {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
					watcher.Add(event.Name)
				}
			}
			if !IsPlanFile(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			stats, err := u.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			u.log.Info("sync complete", "uploaded", stats.FilesUploaded, "skipped", stats.FilesSkipped, "errored", stats.FilesErrored)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			u.log.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
