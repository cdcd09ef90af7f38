// Package watch adapts fsnotify into a recursive stream of file creation
// events and provides the readiness check applied before a new file is acted
// on.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"printwatch/internal/logging"
	"printwatch/internal/rules"
	"printwatch/internal/runctx"
)

type Watcher struct {
	logger *logging.Logger
	opts   Options

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

func New(logger *logging.Logger, opts Options) *Watcher {
	if logger == nil {
		panic("watch.New: logger must not be nil")
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	exclude := make([]string, 0, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			exclude = append(exclude, abs)
		}
	}
	opts.Exclude = exclude
	return &Watcher{logger: logger, opts: opts}
}

// Start registers every directory under each root and begins emitting
// creation events. A root that cannot be observed fails the whole call and
// nothing is left running. The returned channel is closed after Stop or
// after ctx is canceled.
func (w *Watcher) Start(ctx context.Context, roots []string) (<-chan FileEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil, ErrAlreadyStarted
	}

	for _, root := range roots {
		if err := checkRoot(root); err != nil {
			return nil, err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("initialize fsnotify watcher: %w", err)
	}
	for _, root := range roots {
		if err := w.addTree(fsw, root, nil); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
		}
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	out := make(chan FileEvent, w.opts.Buffer)
	w.fs = fsw
	w.cancel = cancel
	w.started = true
	w.wg.Go(func() {
		defer close(out)
		defer fsw.Close()
		w.pump(pumpCtx, fsw, out)
	})

	w.logger.Info("watching directories", logging.Field("roots", len(roots)), logging.Field("buffer", w.opts.Buffer))
	return out, nil
}

// Stop cancels the pump, releases the notifier and waits for the event
// channel to close. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory", ErrRootUnavailable, root)
	}
	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
	}
	return nil
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.opts.Exclude {
		if rules.HasPathPrefix(path, dir) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory beneath it. When found is non-nil
// it receives every non-directory entry discovered during the walk; the
// caller uses that for trees that appeared after the initial registration.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, found func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("skipping unreadable directory", logging.Field("path", path), logging.Field("error", err))
			return fs.SkipDir
		}
		if w.excluded(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if found != nil {
				found(path)
			}
			return nil
		}
		if addErr := fsw.Add(path); addErr != nil {
			if path == dir {
				return addErr
			}
			w.logger.Warn("failed to watch subdirectory", logging.Field("path", path), logging.Field("error", addErr))
			return nil
		}
		w.logger.Debug("watching directory", logging.Field("path", path))
		return nil
	})
}

func (w *Watcher) pump(ctx context.Context, fsw *fsnotify.Watcher, out chan<- FileEvent) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("stopping watcher pump: context canceled")
			return
		case event, ok := <-fsw.Events:
			if !ok {
				w.logger.Debug("stopping watcher pump: notifier closed")
				return
			}
			if !w.handle(ctx, fsw, event, out) {
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logging.Field("error", err))
		}
	}
}

// handle reports false once ctx is canceled mid-send.
func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, out chan<- FileEvent) bool {
	if !event.Has(fsnotify.Create) {
		return true
	}
	path := filepath.Clean(event.Name)
	if w.excluded(path) {
		return true
	}
	now := time.Now()
	w.logger.Debug("entry created", logging.Field("path", path))

	pending := []string{path}
	if info, err := os.Lstat(path); err == nil && info.IsDir() {
		// Entries written into the directory before it was registered never
		// produce their own notification.
		if err := w.addTree(fsw, path, func(child string) {
			pending = append(pending, child)
		}); err != nil {
			w.logger.Warn("failed to watch new directory", logging.Field("path", path), logging.Field("error", err))
		}
	}
	for _, p := range pending {
		if !runctx.SendOrDone(ctx, "watcher pump", w.logger, out, FileEvent{Path: p, ObservedAt: now}) {
			return false
		}
	}
	return true
}
