// Package watch re-runs a build whenever one of its declared trigger files
// changes.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/gramlink/errors"
	"github.com/teranos/gramlink/logger"
	"go.uber.org/zap"
)

// Watcher tracks a set of files. Their parent directories are watched so
// that editors replacing a file by rename are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
}

// New creates a watcher that waits for debounce of quiet after a change.
func New(debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	return &Watcher{
		fs:       fw,
		debounce: debounce,
		log:      logger.OrNop(log),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// SetFiles replaces the tracked set.
func (w *Watcher) SetFiles(paths []string) error {
	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", p)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		if _, keep := dirs[dir]; !keep {
			_ = w.fs.Remove(dir)
		}
	}
	for dir := range dirs {
		if _, have := w.dirs[dir]; have {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			// A directory that does not exist yet cannot be watched
			w.log.Warnw("Cannot watch directory", logger.FieldDir, dir, logger.FieldError, err)
			delete(dirs, dir)
		}
	}
	w.files = files
	w.dirs = dirs
	return nil
}

// Files returns the tracked files in sorted order.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

// Wait blocks until a tracked file changes and no further change arrives
// for the debounce period, then returns every tracked file that changed.
// It returns ctx.Err() when ctx ends first.
func (w *Watcher) Wait(ctx context.Context) ([]string, error) {
	changed := make(map[string]struct{})
	var quiet <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.tracked(event.Name) {
				continue
			}
			w.log.Debugw("Trigger changed", logger.FieldFile, event.Name, "op", event.Op.String())
			changed[filepath.Clean(event.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			quiet = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)

		case <-quiet:
			out := make([]string, 0, len(changed))
			for f := range changed {
				out = append(out, f)
			}
			sort.Strings(out)
			return out, nil
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// BuildFunc runs one build and returns the files that should trigger the
// next one. On error the returned files, if any, are still watched.
type BuildFunc func(ctx context.Context) ([]string, error)

// Loop builds once, then rebuilds after every change to the files the last
// build declared, until ctx ends. Build failures are reported through
// onError and do not stop the loop. extra files (the manifest, the config)
// are always watched.
func Loop(ctx context.Context, w *Watcher, build BuildFunc, extra []string, onError func(error)) error {
	watched := extra
	for {
		triggers, err := build(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
		if len(triggers) > 0 || err == nil {
			watched = append(append([]string(nil), extra...), triggers...)
		}
		if err := w.SetFiles(watched); err != nil {
			return err
		}

		changed, err := w.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		w.log.Infow("Rebuilding", "changed", changed)
	}
}
