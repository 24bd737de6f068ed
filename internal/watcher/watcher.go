// Package watcher captures dictation transcripts dropped into an inbox directory. Each
// file is captured once its writes settle and is then renamed so it is never captured again.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Suffixes appended to processed files.
const (
	DoneSuffix   = ".done"
	FailedSuffix = ".failed"
)

// CaptureFunc processes the text of one dropped file.
type CaptureFunc func(ctx context.Context, path, text string) error

// Inbox watches one directory and captures new files.
type Inbox struct {
	dir        string
	extensions []string
	debounce   time.Duration
	capture    CaptureFunc
	logger     *zap.Logger

	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	ctx        context.Context
	pending    map[string]*time.Timer
	processing map[string]bool
	inflight   sync.WaitGroup
	done       chan struct{}
	started    bool
	stopOnce   sync.Once
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Inbox) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets the quiet period after the last write before a file is captured.
func WithDebounce(d time.Duration) Option {
	return func(w *Inbox) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions restricts captured files to these extensions (empty means all).
func WithExtensions(exts []string) Option {
	return func(w *Inbox) { w.extensions = exts }
}

// NewInbox creates an inbox for dir. capture is called for every settled file.
func NewInbox(dir string, capture CaptureFunc, opts ...Option) *Inbox {
	w := &Inbox{
		dir:        filepath.Clean(dir),
		debounce:   defaultDebounce,
		capture:    capture,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		processing: make(map[string]bool),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the watched directory.
func (w *Inbox) Dir() string { return w.dir }

// Start starts watching. It runs until ctx is cancelled or Stop is called. Captures run
// with ctx.
func (w *Inbox) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch inbox: %w", err)
	}
	w.watcher = watcher
	w.ctx = ctx
	w.started = true
	w.logger.Debug("inbox watching", zap.String("dir", w.dir), zap.Strings("extensions", w.extensions))
	go w.run(ctx, watcher)
	return nil
}

func (w *Inbox) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("inbox watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Inbox) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !w.wants(ev.Name) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}
	w.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.schedule(ev.Name)
}

// wants reports whether path is a direct child of the inbox with a captured extension.
func (w *Inbox) wants(path string) bool {
	if filepath.Dir(filepath.Clean(path)) != w.dir {
		return false
	}
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		ext := strings.ToLower(filepath.Ext(path))
		return ext != DoneSuffix && ext != FailedSuffix
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Inbox) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if !w.started || w.processing[path] {
			w.mu.Unlock()
			return
		}
		w.processing[path] = true
		w.inflight.Add(1)
		ctx := w.ctx
		w.mu.Unlock()

		defer w.inflight.Done()
		w.process(ctx, path)

		w.mu.Lock()
		delete(w.processing, path)
		w.mu.Unlock()
	})
}

// process captures one file and renames it with DoneSuffix, or FailedSuffix when the
// capture fails.
func (w *Inbox) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("inbox read failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	text := strings.TrimSpace(string(data))
	suffix := DoneSuffix
	if text == "" {
		w.logger.Info("inbox file empty, skipping", zap.String("path", path))
	} else if err := w.capture(ctx, path, text); err != nil {
		w.logger.Error("inbox capture failed", zap.String("path", path), zap.Error(err))
		suffix = FailedSuffix
	} else {
		w.logger.Info("inbox file captured", zap.String("path", path))
	}
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.Warn("inbox rename failed", zap.String("path", path), zap.Error(err))
	}
}

// SyncExisting schedules every matching file already in the inbox. Call it after Start to
// capture files dropped while the watcher was down.
func (w *Inbox) SyncExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.IsDir() || !w.wants(path) {
			continue
		}
		w.schedule(path)
	}
	return nil
}

// Stop stops the watcher, drops pending files and waits for running captures.
func (w *Inbox) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.inflight.Wait()
}
