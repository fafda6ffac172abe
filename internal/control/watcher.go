package control

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"textworld/internal/logging"
	"textworld/internal/script"
)

// Watcher watches a directory of attached-script source files and
// recompiles a changed file on its own goroutine through Host.Compile,
// which swaps the result into the host's live cache as soon as it
// compiles. Nothing is handed to the simulation task over a channel, and
// the swap is not held back to a tick boundary: a reload can take effect
// in the middle of a tick. Successful recompiles are also recorded in
// pending for InstallPending to log. Grounded on
// internal/core/mangle_watcher.go's fsnotify.Watcher setup, generalized
// from Mangle-rule revalidation to script recompilation.
type Watcher struct {
	dir  string
	host *script.Host
	fsw  *fsnotify.Watcher
	log  *logging.Logger

	mu      sync.Mutex
	pending map[string]string // script name -> source, awaiting install
}

// NewWatcher prepares a watcher for dir. An empty dir disables hot-reload
// entirely (Start becomes a no-op) — scripts are then only ever compiled
// explicitly via the CLI or store load.
func NewWatcher(dir string, host *script.Host) (*Watcher, error) {
	w := &Watcher{
		dir:     dir,
		host:    host,
		log:     logging.Get(logging.CategoryScript),
		pending: map[string]string{},
	}
	if dir == "" {
		return w, nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	return w, nil
}

// Start begins watching in the background. No-op if hot-reload is
// disabled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.fsw == nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".go") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.recompile(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("script watcher: %v", err)
		}
	}
}

func (w *Watcher) recompile(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("script watcher: read %s: %v", path, err)
		return
	}
	name := strings.TrimSuffix(filepath.Base(path), ".go")
	if err := w.host.Compile(name, string(src)); err != nil {
		w.log.Warn("script watcher: recompile %s: %v", name, err)
		return
	}
	w.mu.Lock()
	w.pending[name] = string(src)
	w.mu.Unlock()
}

// InstallPending logs and clears the set of scripts recompiled since the
// last call. Host.Compile already installs atomically into the live
// cache, so this is a boot/tick-log checkpoint, not a second apply step.
func (w *Watcher) InstallPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name := range w.pending {
		w.log.Info("script %s hot-reloaded", name)
		delete(w.pending, name)
	}
}

// Close stops the underlying fsnotify watcher, if any.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
