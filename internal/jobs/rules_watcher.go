package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"dreamforge/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// RulesStore holds the active scoring table. Readers never block a reload.
type RulesStore struct {
	path    string
	current atomic.Pointer[RuleSet]
	logger  *errors.Logger
}

// NewRulesStore loads path, or the built-in table when path is empty
func NewRulesStore(path string, logger *errors.Logger) (*RulesStore, error) {
	s := &RulesStore{path: path, logger: logger}
	if path == "" {
		s.current.Store(DefaultRuleSet())
		return s, nil
	}

	rs, err := LoadRules(path)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load scoring rules", err).
			WithContext("path", path)
	}
	s.current.Store(rs)
	return s, nil
}

// Current returns the active table
func (s *RulesStore) Current() *RuleSet {
	return s.current.Load()
}

// Path returns the watched rules file, empty for the built-in table
func (s *RulesStore) Path() string {
	return s.path
}

// Reload re-reads the rules file. On error the previous table stays active.
func (s *RulesStore) Reload() error {
	if s.path == "" {
		return nil
	}
	rs, err := LoadRules(s.path)
	if err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Scoring rules reload failed, keeping previous rules", "path", s.path)
		}
		return err
	}
	s.current.Store(rs)
	if s.logger != nil {
		s.logger.Info("Scoring rules reloaded", "path", s.path, "rules", len(rs.Rules))
	}
	return nil
}

// RulesWatcher reloads a RulesStore when its file changes on disk
type RulesWatcher struct {
	mu sync.Mutex

	store       *RulesStore
	file        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger  *errors.Logger
	running bool
}

// NewRulesWatcher creates a watcher for the store's file
func NewRulesWatcher(store *RulesStore, debounceDelay time.Duration, logger *errors.Logger) *RulesWatcher {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &RulesWatcher{
		store:         store,
		file:          store.Path(),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		logger:        logger,
	}
}

// Start begins watching. A store without a file is a no-op.
func (rw *RulesWatcher) Start() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.running {
		return fmt.Errorf("rules watcher is already running")
	}
	if rw.file == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	rw.fsWatcher = watcher

	if stat, err := os.Stat(rw.file); err == nil {
		rw.lastModTime = stat.ModTime()
	}

	// editors and config management replace files by rename, so watch the directory
	dir := filepath.Dir(rw.file)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	rw.running = true
	go rw.watchLoop()

	if rw.logger != nil {
		rw.logger.Info("Scoring rules watcher started", "file", rw.file, "debounce_delay", rw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher
func (rw *RulesWatcher) Stop() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if !rw.running {
		return nil
	}

	close(rw.stopChan)
	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.running = false

	if err := rw.fsWatcher.Close(); err != nil {
		if rw.logger != nil {
			rw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}

	if rw.logger != nil {
		rw.logger.Info("Scoring rules watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (rw *RulesWatcher) IsRunning() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.running
}

func (rw *RulesWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-rw.fsWatcher.Events:
			if !ok {
				return
			}
			if rw.shouldProcessEvent(event) {
				rw.scheduleReload()
			}

		case err, ok := <-rw.fsWatcher.Errors:
			if !ok {
				return
			}
			if rw.logger != nil {
				rw.logger.LogError(err, "File watcher error")
			}

		case <-rw.reloadChan:
			if rw.hasFileChanged() {
				_ = rw.store.Reload()
			}

		case <-rw.stopChan:
			return
		}
	}
}

func (rw *RulesWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(rw.file) &&
		filepath.Base(event.Name) != filepath.Base(rw.file) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0
}

func (rw *RulesWatcher) hasFileChanged() bool {
	stat, err := os.Stat(rw.file)
	if err != nil {
		return false
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	if stat.ModTime().Equal(rw.lastModTime) {
		return false
	}
	rw.lastModTime = stat.ModTime()
	return true
}

// scheduleReload collapses bursts of events into one reload
func (rw *RulesWatcher) scheduleReload() {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.debounceTimer = time.AfterFunc(rw.debounceDelay, func() {
		select {
		case rw.reloadChan <- struct{}{}:
		default:
		}
	})
}
