// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs a conversion when files in the watched directories
// change.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// relevant reports whether ev should trigger a run. Chmod-only events, hidden
// files (including in-flight temp files), and files whose extension is not in
// exts are ignored. An empty exts matches every extension.
func relevant(ev fsnotify.Event, exts []string) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(exts) > 0 && !slices.Contains(exts, filepath.Ext(base)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Run watches dirs and calls fn once per burst of changes to files with one
// of exts, after debounce has passed with no further events. Output written
// into a watched directory under another extension never retriggers a run. fn runs on the calling goroutine, so runs
// never overlap. Run returns when ctx is done.
func Run(ctx context.Context, dirs, exts []string, debounce time.Duration, w io.Writer, fn func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	fmt.Fprintf(w, "watching: %s\n", strings.Join(dirs, ", "))

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, exts) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			fmt.Fprintln(w, "change detected, converting")
			fn(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "  warning: watcher: %v\n", err)
		}
	}
}
