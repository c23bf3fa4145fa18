package topologyfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/linesim/internal/ctxlog"
	"github.com/specialistvlad/linesim/internal/model"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a topology file whenever it changes on disk.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration

	// mu serializes reloads and guards the last seen file state.
	mu      sync.Mutex
	modTime time.Time
	size    int64
	pending sync.WaitGroup

	// OnChange receives the freshly decoded topology.
	OnChange func(cfg *model.Config) error
	// OnError receives load and callback failures.
	OnError func(err error)
}

// NewWatcher starts watching path. The file must already exist.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat topology file: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	return &Watcher{
		fs:       fs,
		path:     abs,
		debounce: DefaultDebounce,
		modTime:  stat.ModTime(),
		size:     stat.Size(),
	}, nil
}

// SetDebounce changes the quiet period before a change is handled.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks handling file events until ctx is cancelled. No OnChange call
// is in flight once it returns.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Watching topology file.", "path", w.path)
	defer w.fs.Close()

	var timer *time.Timer
	stop := func() {
		if timer != nil && timer.Stop() {
			w.pending.Done()
		}
	}
	defer func() {
		stop()
		w.pending.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if abs, err := filepath.Abs(event.Name); err != nil || abs != w.path {
				continue
			}
			stop()
			w.pending.Add(1)
			timer = time.AfterFunc(w.debounce, func() {
				defer w.pending.Done()
				w.handleChange(ctx)
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) handleChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	stat, err := os.Stat(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	if stat.ModTime().Equal(w.modTime) && stat.Size() == w.size {
		return
	}
	w.modTime, w.size = stat.ModTime(), stat.Size()

	cfg, err := Load(ctx, w.path)
	if err != nil {
		w.fail(err)
		return
	}
	ctxlog.FromContext(ctx).Info("Topology file changed, reloading.", "path", w.path)
	if w.OnChange != nil {
		if err := w.OnChange(cfg); err != nil {
			w.fail(err)
		}
	}
}

func (w *Watcher) fail(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}

// Close stops the underlying watcher. Run returns once it notices.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
