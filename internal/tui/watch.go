package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/jjk-go/internal/debounce"
)

const autoReloadDebounceDelay = 350 * time.Millisecond

// reloadMsg asks the model to re-ingest because the repository changed
// outside of this program.
type reloadMsg struct{}

// watcher observes the operation heads of a jj repository. Every jj command
// that changes the repository rewrites them, including ones run from other
// terminals.
type watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	debounce *debounce.Debouncer
	done     chan struct{}
}

func startWatcher(dir string, send func(tea.Msg)) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	slog.Debug("adding path to FS watcher", slog.String("path", dir))
	if err := fsw.Add(dir); err != nil {
		err := errors.Join(err, fsw.Close())
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &watcher{fs: fsw, done: make(chan struct{})}
	debounce.Ensure(&w.debounce, autoReloadDebounceDelay, func() {
		slog.Debug("auto reload")
		send(reloadMsg{})
	})
	go w.loop()
	return w, nil
}

func (w *watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.schedule()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Trigger()
	}
}

func (w *watcher) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.mu.Unlock()
	err := w.fs.Close()
	<-w.done
	return err
}
