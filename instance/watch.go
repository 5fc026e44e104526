package instance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce window for editors that write config files in several events.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads instance configuration whenever a watched file
// changes. Stop must be called to release filesystem resources.
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Watch wires fsnotify around the loader's files and invokes onChange
// with the freshly loaded configuration after each relevant change.
// Reload failures are logged and skipped; the previous configuration
// stays in effect.
func (l *Loader) Watch(ctx context.Context, logger *zap.Logger, onChange func(Config)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("instance: watch requires a change callback")
	}
	if len(l.files) == 0 {
		return nil, errors.New("instance: no files configured for watching")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("instance: watch: %w", err)
	}

	watched := make(map[string]bool, len(l.files))
	for _, path := range l.files {
		if path == "" {
			continue
		}
		// Watch the directory: editors replace files by rename, which
		// drops a watch installed on the file itself.
		if err := fw.Add(filepath.Dir(path)); err != nil {
			fw.Close()
			return nil, fmt.Errorf("instance: watch %s: %w", path, err)
		}
		watched[filepath.Clean(path)] = true
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w := &Watcher{cancel: cancel, done: done}

	go func() {
		defer close(done)
		defer fw.Close()

		var pending *time.Timer
		var pendingC <-chan time.Time

		reload := func() {
			cfg, err := l.Load()
			if err != nil {
				logger.Warn("instance: reload failed, keeping previous config", zap.Error(err))
				return
			}
			onChange(cfg)
		}

		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !watched[filepath.Clean(ev.Name)] {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if pending == nil {
					pending = time.NewTimer(reloadDelay)
					pendingC = pending.C
				} else {
					pending.Reset(reloadDelay)
				}
			case <-pendingC:
				pending = nil
				pendingC = nil
				reload()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("instance: watch error", zap.Error(err))
			}
		}
	}()

	return w, nil
}
