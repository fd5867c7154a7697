// Package watcher monitors a source tree for changes and delivers
// debounced batches of modified files.
//
// Events are accumulated into a set and flushed to a callback after a
// quiet period, so a burst of writes from an editor save or a branch
// switch becomes a single batch. Excluded directories are never added
// to the watch set, which keeps inotify descriptors away from vendor
// trees and the tool's own output directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is the quiet period after the last event before a
// batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// outputDir is always excluded so the tool never watches its own output.
const outputDir = ".codeatlas"

// Watcher watches a root directory recursively and invokes a callback
// with root-relative paths of changed files. Batches are deduplicated
// and sorted, so identical change sets always produce identical
// callbacks.
type Watcher struct {
	fsw        *fsnotify.Watcher
	root       string
	extensions map[string]bool
	exclude    []glob.Glob
	logger     *log.Logger

	debounceTime time.Duration
	callback     func(files []string)
	ctx          context.Context
	cancel       context.CancelFunc

	paused   bool
	pausedMu sync.RWMutex

	accumulated   map[string]bool
	accumulatedMu sync.Mutex

	debounceTimer *time.Timer
	timerMu       sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for non-fatal watch errors.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher rooted at root. extensions lists the file
// extensions to monitor (".py", ".go", ...). exclude holds glob
// patterns relative to root, '/'-separated, naming paths that must not
// be watched; directories matching an exclusion are pruned from the
// watch set entirely.
func New(root string, extensions, exclude []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extMap[ext] = true
	}

	w := &Watcher{
		fsw:          fsw,
		root:         root,
		extensions:   extMap,
		logger:       log.NewWithOptions(io.Discard, log.Options{}),
		debounceTime: DefaultDebounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		w.exclude = append(w.exclude, g)
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.watchTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching and invokes callback with each debounced batch.
// The callback runs on the watch goroutine; a slow callback delays
// delivery of later batches but loses no events.
func (w *Watcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return errors.New("watcher: callback is required")
	}

	w.callback = callback
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.watch()
	return nil
}

// Stop shuts the watcher down and waits for the watch goroutine to
// exit. It is safe to call more than once and from multiple goroutines.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			// Start was never called.
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

// Pause stops delivery. Events keep accumulating and are delivered on
// Resume.
func (w *Watcher) Pause() {
	w.pausedMu.Lock()
	defer w.pausedMu.Unlock()
	w.paused = true
}

// Resume re-enables delivery. Changes that accumulated while paused are
// delivered immediately on the calling goroutine.
func (w *Watcher) Resume() {
	w.pausedMu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.pausedMu.Unlock()

	if !wasPaused {
		return
	}
	if files := w.drainAccumulated(); len(files) > 0 && w.callback != nil {
		w.callback(files)
	}
}

// watch is the event loop. It owns the flush channel: the debounce
// timer signals it, and the loop turns the signal into a delivery.
func (w *Watcher) watch() {
	defer close(w.doneCh)

	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, flushCh)

		case <-flushCh:
			w.deliver()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, flushCh chan struct{}) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// New directories join the watch set so files created inside them
	// are seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.skipDir(rel) {
				return
			}
			if err := w.watchTree(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", rel, "error", err)
			}
			return
		}
	}

	if !w.wantsEvent(event, rel) {
		return
	}

	w.accumulatedMu.Lock()
	w.accumulated[rel] = true
	w.accumulatedMu.Unlock()

	w.resetDebounceTimer(flushCh)
}

// deliver fires the callback with the accumulated batch unless paused.
func (w *Watcher) deliver() {
	w.pausedMu.RLock()
	paused := w.paused
	w.pausedMu.RUnlock()
	if paused {
		// Keep accumulating; Resume delivers.
		return
	}

	if files := w.drainAccumulated(); len(files) > 0 {
		w.callback(files)
	}
}

// drainAccumulated returns and clears the accumulated change set,
// sorted for stable delivery order.
func (w *Watcher) drainAccumulated() []string {
	w.accumulatedMu.Lock()
	defer w.accumulatedMu.Unlock()

	if len(w.accumulated) == 0 {
		return nil
	}
	files := make([]string, 0, len(w.accumulated))
	for file := range w.accumulated {
		files = append(files, file)
	}
	w.accumulated = make(map[string]bool)
	sort.Strings(files)
	return files
}

// resetDebounceTimer restarts the quiet-period timer. The timer's
// signal send is non-blocking against the 1-buffered flush channel, so
// a stale timer firing just before Stop at worst triggers one empty
// delivery, which deliver ignores.
func (w *Watcher) resetDebounceTimer(flushCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// wantsEvent reports whether an event is a relevant change to a
// monitored file. Rename counts as a removal of the old name.
func (w *Watcher) wantsEvent(event fsnotify.Event, rel string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !w.extensions[filepath.Ext(event.Name)] {
		return false
	}
	return !w.excluded(rel)
}

// excluded reports whether a root-relative path falls under an
// exclusion pattern or the tool's own output directory.
func (w *Watcher) excluded(rel string) bool {
	if rel == outputDir || strings.HasPrefix(rel, outputDir+"/") {
		return true
	}
	for _, g := range w.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// skipDir reports whether a directory stays out of the watch set. The
// directory is pruned when the path itself is excluded or when a
// pattern covers everything beneath it, so "node_modules" is pruned by
// its own "node_modules/**" pattern.
func (w *Watcher) skipDir(rel string) bool {
	if rel == "." {
		return false
	}
	if w.excluded(rel) {
		return true
	}
	under := rel + "/**"
	for _, g := range w.exclude {
		if g.Match(under) {
			return true
		}
	}
	return false
}

// watchTree adds path and every non-excluded directory below it to the
// watch set. Unreadable subdirectories are logged and skipped; only an
// unreadable root is fatal.
func (w *Watcher) watchTree(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			w.logger.Warn("cannot access path", "path", p, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		if w.skipDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("cannot watch directory", "path", p, "error", err)
		}
		return nil
	})
}
