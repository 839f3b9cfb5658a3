package dustr

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchSettle is how long Watch waits for further changes before calling
// fn.
const watchSettle = 100 * time.Millisecond

// Watch calls fn, then calls it again after Rust sources, TOML files or
// bindings lists below dir change, until ctx is done. Directories named
// "target" and hidden directories are not watched.
func Watch(ctx context.Context, dir string, logger zerolog.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, dir); err != nil {
		return fmt.Errorf("watch %v: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("Watching for changes")

	fn()

	timer := time.NewTimer(watchSettle)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						logger.Error().Err(err).Str("dir", ev.Name).Msg("Cannot watch directory")
					}
				}
			}
			if !isWatched(ev.Name) {
				continue
			}
			logger.Debug().
				Str("event", ev.Op.String()).
				Str("file", ev.Name).
				Msg("Source changed")
			timer.Reset(watchSettle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("File watcher error")
		case <-timer.C:
			fn()
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (d.Name() == "target" || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func isWatched(name string) bool {
	switch filepath.Ext(name) {
	case ".rs", ".toml", ".txt":
		return true
	}
	return false
}
