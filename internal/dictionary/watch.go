package dictionary

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher reloads the user word list into a dictionary whenever the
// file changes. Editors replace files with rename-and-create, so the
// watch is on the parent directory, filtered by name.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	dict      *Dictionary
	onError   func(error)

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher that keeps dict in sync with the user
// word list at path. onError may be nil.
func NewWatcher(path string, dict *Dictionary, onError func(error)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		path:      abs,
		dict:      dict,
		onError:   onError,
		done:      make(chan struct{}),
	}
	return w, nil
}

// Start loads the list once, then begins watching for changes.
func (w *Watcher) Start() error {
	if err := w.reload(); err != nil {
		return err
	}

	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Debounce: editors fire several events per save.
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.reload(); err != nil && w.onError != nil {
				w.onError(err)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) reload() error {
	words, err := LoadUserWordlist(w.path)
	if err != nil {
		return err
	}
	w.dict.SetUserWords(words)
	return nil
}
