package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// DirWatcher reports debounced changes of files inside one directory.
// Names on the Changes channel are base names, deduplicated per burst.
type DirWatcher struct {
	watcher *fsnotify.Watcher
	changes chan []string
	stopCh  chan struct{}
}

func NewDirWatcher(dir string) (*DirWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	d := &DirWatcher{watcher: w, changes: make(chan []string, 1), stopCh: make(chan struct{})}
	go d.loop()
	return d, nil
}

func (d *DirWatcher) Changes() <-chan []string { return d.changes }

func (d *DirWatcher) Close() error {
	close(d.stopCh)
	return d.watcher.Close()
}

func (d *DirWatcher) loop() {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]struct{}{}
	for {
		select {
		case <-d.stopCh:
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			pending = map[string]struct{}{}
			select {
			case d.changes <- names:
			case <-d.stopCh:
				return
			}
		case _, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
