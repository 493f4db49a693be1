package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a RunConfig from disk whenever its file changes, and
// notifies registered callbacks with the freshly validated config. It
// exists so a long-running pacer process (e.g. one driving a soak test
// across several scenarios) can pick up tuning changes — a new error_rate
// target, a relaxed latency goal — without a restart.
type Watcher struct {
	mu             sync.RWMutex
	watcher        *fsnotify.Watcher
	configPath     string
	current        *RunConfig
	callbacks      []func(*RunConfig)
	reloadDebounce time.Duration
	log            *zap.Logger

	done chan struct{}
}

// WatchConfig loads configFile once and starts watching it for changes.
// Callers must call Stop when finished to release the underlying watcher.
func WatchConfig(configFile string, log *zap.Logger) (*Watcher, error) {
	cfg, err := Load(configFile)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(filepath.Dir(configFile)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:        fw,
		configPath:     configFile,
		current:        cfg,
		reloadDebounce: 500 * time.Millisecond,
		log:            log,
		done:           make(chan struct{}),
	}

	go w.run()
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *RunConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked (from a dedicated goroutine) after
// every successful reload.
func (w *Watcher) OnChange(cb func(*RunConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Stop releases the filesystem watch. Safe to call once.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) run() {
	debounce := time.NewTimer(w.reloadDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(w.reloadDebounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))

		case <-debounce.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.configPath)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous configuration",
			zap.String("path", w.configPath), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*RunConfig), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.log.Info("configuration reloaded", zap.String("path", w.configPath), zap.String("scenario", cfg.Scenario))

	for _, cb := range callbacks {
		go func(cb func(*RunConfig)) {
			defer func() {
				if r := recover(); r != nil {
					w.log.Error("config change callback panicked", zap.Any("panic", r))
				}
			}()
			cb(cfg)
		}(cb)
	}
}
