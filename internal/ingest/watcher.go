package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch blocks on dir and invokes handle for every newly created
// ingestible file until ctx is cancelled.
func Watch(ctx context.Context, dir string, logger *slog.Logger, handle func(path string)) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			logger.Warn("closing watcher", "error", cerr)
		}
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching for new invoices", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if IsHidden(ev.Name) || !AllowedExt(filepath.Ext(ev.Name)) {
				continue
			}
			logger.Debug("new invoice file detected", "path", ev.Name)
			handle(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
