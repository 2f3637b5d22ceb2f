package frames

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the catalog when the frames directory changes, so
// overlay art can be swapped on a running booth without a restart.
type Watcher struct {
	catalog *Catalog
	log     *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the catalog's directory. Call Start
// to begin watching and Stop to tear it down.
func NewWatcher(catalog *Catalog, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		catalog:     catalog,
		log:         log,
		watcher:     fw,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // editors fire bursts of writes per save
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Safe to call once; a second call is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.catalog.Dir()); err != nil {
		return err
	}
	w.running = true
	go w.loop()
	return nil
}

// Stop tears the watcher down and waits for the event loop to exit.
// Safe on a watcher that was never started; the underlying fsnotify
// watcher is released either way.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if w.debounced(ev.Name) {
				continue
			}
			if err := w.catalog.Reload(); err != nil {
				// keep serving the previous catalog
				w.log.Warn("frame catalog reload failed",
					zap.String("trigger", filepath.Base(ev.Name)),
					zap.Error(err))
				continue
			}
			w.log.Info("frame catalog reloaded",
				zap.String("trigger", filepath.Base(ev.Name)),
				zap.Int("frames", len(w.catalog.List())))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("frame watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) debounced(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.debounceMap[name]; ok && now.Sub(last) < w.debounceDur {
		return true
	}
	w.debounceMap[name] = now
	return false
}
