package library

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the index when files appear in or vanish from the
// segments drop-box, so dedications rendered mid-show are picked up
// without polling. It blocks until ctx is done. A failure to set up the
// watcher is returned; the station runs fine without it (the segment
// scan re-reads the directory anyway, this only covers the cached music
// set when archives mount late).
func (ix *Index) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := append([]string{ix.SegmentsDir}, ix.MusicDirs...)
	for _, root := range roots {
		if err := w.Add(root); err != nil {
			log.Printf("library: watch %s: %v", root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				ix.Invalidate()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("library: watcher: %v", err)
		}
	}
}
