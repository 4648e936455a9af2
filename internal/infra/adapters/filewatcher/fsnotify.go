// Package filewatcher uploads documents dropped into a watched folder.
package filewatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rag-chat-client/internal/infra/metrics"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Uploader receives the path of every settled file.
type Uploader interface {
	UploadDropped(ctx context.Context, path string) error
}

// DefaultSettle is how long a file must stay quiet before it is uploaded.
// Copies show up as a create followed by a burst of writes.
const DefaultSettle = 500 * time.Millisecond

// DropWatcher watches one directory and hands new or rewritten files with a
// known extension to the uploader once they stop changing.
type DropWatcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	extensions []string
	settle     time.Duration
	up         Uploader
	log        *zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewDropWatcher creates dir if needed and starts watching it.
func NewDropWatcher(dir string, extensions []string, up Uploader, logger *zerolog.Logger) (*DropWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	norm := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	l := logger.With().Str("component", "DropWatcher").Str("dir", dir).Logger()
	return &DropWatcher{
		watcher:    w,
		dir:        dir,
		extensions: norm,
		settle:     DefaultSettle,
		up:         up,
		log:        &l,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *DropWatcher) Run(ctx context.Context) {
	w.log.Info().Strs("extensions", w.extensions).Msg("watching drop folder")
	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.stopPending()
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.isWatchedExtension(event.Name) {
				metrics.IncFileDropped("ignored")
				w.log.Debug().Str("file", event.Name).Msg("ignored file")
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.stopPending()
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *DropWatcher) Stop() error {
	err := w.watcher.Close()
	w.stopPending()
	w.wg.Wait()
	return err
}

// schedule (re)starts the settle timer for path.
func (w *DropWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.fire(ctx, path)
	})
	w.pending[path] = t
}

func (w *DropWatcher) fire(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	metrics.IncFileDropped("queued")
	w.log.Info().Str("file", path).Int64("size", info.Size()).Msg("dropped file")
	if err := w.up.UploadDropped(ctx, path); err != nil {
		w.log.Warn().Err(err).Str("file", path).Msg("dropped file not uploaded")
	}
}

func (w *DropWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, p)
	}
}

func (w *DropWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
