package index

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rebuildDebounce coalesces bursts of file events (a temp-file write plus
// a rename) into a single rebuild.
const rebuildDebounce = 500 * time.Millisecond

// StoreWatcher watches the record store's backing file and rebuilds the
// index when another process mutates it.
type StoreWatcher struct {
	path    string
	index   *Index
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStoreWatcher creates a watcher for the store file at path.
func NewStoreWatcher(path string, ix *Index) *StoreWatcher {
	return &StoreWatcher{
		path:  path,
		index: ix,
		done:  make(chan struct{}),
	}
}

// Start begins watching. The parent directory is watched rather than the
// file itself because the store engines replace the file via rename.
// Call Stop to clean up.
func (sw *StoreWatcher) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(sw.path)); err != nil {
		_ = w.Close()
		return err
	}
	sw.watcher = w

	go sw.loop(ctx)
	log.Printf("index: watching %s for record changes", sw.path)
	return nil
}

// Stop shuts down the watcher.
func (sw *StoreWatcher) Stop() {
	if sw.watcher != nil {
		_ = sw.watcher.Close()
	}
	<-sw.done
}

func (sw *StoreWatcher) loop(ctx context.Context) {
	defer close(sw.done)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case evt, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if evt.Name != sw.path {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(rebuildDebounce)
				timerC = timer.C
			} else {
				timer.Reset(rebuildDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := sw.index.Rebuild(ctx); err != nil {
				log.Printf("index: rebuild after store change failed: %v", err)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("index: watcher error: %v", err)
		}
	}
}
