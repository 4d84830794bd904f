// Package watch drives the CLI's watch mode: it notices new or changed
// PDFs under an input directory and submits them for stamping. Adapted
// from the teacher's watcher.go (pathLocker, debouncer, initialScan,
// eventLoop, pollLoop), generalized from `.note`/`.mark` inputs to plain
// `.pdf` inputs, and from a hardcoded conversion call to a caller-supplied
// Process callback so this package stays independent of internal/stamp
// and internal/coordinator.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// pathLocker provides per-path mutual exclusion so two events for the
// same file never run their Process callback concurrently.
type pathLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocker() *pathLocker {
	return &pathLocker{locks: make(map[string]*sync.Mutex)}
}

func (pl *pathLocker) Lock(path string) {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		l = &sync.Mutex{}
		pl.locks[path] = l
	}
	pl.mu.Unlock()
	l.Lock()
}

func (pl *pathLocker) Unlock(path string) {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		pl.mu.Unlock()
		return
	}
	pl.mu.Unlock()
	l.Unlock()
}

// debouncer coalesces rapid event bursts (common during file copies)
// into a single callback per file.
type debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	delay  time.Duration
	onFire func(path string)
}

func newDebouncer(delay time.Duration, onFire func(path string)) *debouncer {
	return &debouncer{timers: make(map[string]*time.Timer), delay: delay, onFire: onFire}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.onFire(path)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
}

// Config configures a watch run.
type Config struct {
	InputDir     string
	PollInterval time.Duration
	Process      func(path string) error
	Logger       zerolog.Logger
}

// Run watches InputDir for `.pdf` files and calls Process for each new
// or changed one, debounced and deduplicated by path. It blocks until
// ctx is cancelled, then waits for in-flight Process calls to finish
// before returning — the same shutdown contract as the teacher's
// runWatchMode, minus the SIGINT/SIGTERM wiring (the caller owns ctx).
func Run(ctx context.Context, cfg Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := watchRecursive(w, cfg.InputDir); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.InputDir, err)
	}
	cfg.Logger.Info().Str("dir", cfg.InputDir).Msg("watching")

	pathLock := newPathLocker()
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	process := func(path string) {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			pathLock.Lock(path)
			defer pathLock.Unlock(path)
			if err := cfg.Process(path); err != nil {
				cfg.Logger.Error().Str("path", path).Err(err).Msg("processing failed")
				return
			}
			cfg.Logger.Info().Str("path", path).Msg("processed")
		}()
	}

	db := newDebouncer(500*time.Millisecond, process)
	defer db.stop()

	initialScan(cfg.InputDir, db)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	go pollLoop(ctx, cfg.InputDir, pollInterval, db.trigger)

	eventLoop(ctx, w, db, cfg.Logger)

	wg.Wait()
	return nil
}

func watchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func initialScan(dir string, db *debouncer) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isPDF(path) {
			return nil
		}
		db.trigger(path)
		return nil
	})
}

func eventLoop(ctx context.Context, w *fsnotify.Watcher, db *debouncer, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					watchRecursive(w, ev.Name)
					continue
				}
			}
			if ev.Has(fsnotify.Rename) {
				if _, err := os.Stat(ev.Name); err != nil {
					continue
				}
				w.Add(filepath.Dir(ev.Name))
			}
			if !isPDF(ev.Name) {
				continue
			}
			db.trigger(ev.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// pollLoop walks the input directory at a fixed interval to catch
// mtime changes on network/virtual filesystems where the OS watcher
// doesn't fire reliably (same rationale as the teacher's pollLoop).
func pollLoop(ctx context.Context, dir string, interval time.Duration, onChanged func(path string)) {
	mtimes := make(map[string]time.Time)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		seen := make(map[string]bool)
		filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || !isPDF(path) {
				return nil
			}
			seen[path] = true
			info, err := d.Info()
			if err != nil {
				return nil
			}
			mt := info.ModTime()
			if prev, ok := mtimes[path]; !ok || !mt.Equal(prev) {
				mtimes[path] = mt
				onChanged(path)
			}
			return nil
		})

		for path := range mtimes {
			if !seen[path] {
				delete(mtimes, path)
			}
		}
	}
}
