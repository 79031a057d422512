package termsession

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a control directory for externally-created session
// directories (one per UUID) and invokes onAttach for each one it
// notices.
type DirWatcher struct {
	dir      string
	onAttach func(sessionID string)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewDirWatcher returns a watcher over dir. Call Start to begin
// watching.
func NewDirWatcher(dir string, onAttach func(sessionID string)) *DirWatcher {
	return &DirWatcher{dir: dir, onAttach: onAttach, done: make(chan struct{})}
}

// Start begins watching the control directory in a background goroutine.
func (w *DirWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	go w.run()
	return nil
}

// Stop shuts down the watcher.
func (w *DirWatcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *DirWatcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.process(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("termsession: control dir watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *DirWatcher) process(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == 0 {
		return
	}
	base := filepath.Base(ev.Name)
	if !isUUIDLike(base) {
		return
	}
	if w.onAttach != nil {
		w.onAttach(base)
	}
}

// isUUIDLike reports whether s has the canonical 36-character
// 8-4-4-4-12 hyphenated UUID shape.
func isUUIDLike(s string) bool {
	if len(s) != 36 {
		return false
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return false
	}
	const hex = "0123456789abcdefABCDEF"
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			continue
		}
		if !strings.ContainsRune(hex, c) {
			return false
		}
	}
	return true
}
