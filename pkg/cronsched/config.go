package cronsched

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// AutoCleanupConfig controls the background retention-cleanup loop (spec §6).
type AutoCleanupConfig struct {
	Enabled                bool          `yaml:"enabled"`
	Interval               time.Duration `yaml:"interval"`
	CompletedJobsRetention time.Duration `yaml:"completedJobsRetention"`
	CancelledJobsRetention time.Duration `yaml:"cancelledJobsRetention"`
}

// Config is the scheduler's full set of recognised options (spec §6).
type Config struct {
	DB              string            `yaml:"db"`
	ChunkSize       int               `yaml:"chunkSize"`
	RefreshInterval time.Duration     `yaml:"refreshInterval"`
	LookAheadWindow time.Duration     `yaml:"lookAheadWindow"`
	AutoCleanup     AutoCleanupConfig `yaml:"autoCleanup"`
	Retry           RetryConfig       `yaml:"retry"`
	OnError         ErrorFunc         `yaml:"-"`
}

// DefaultConfig returns spec §6's defaults. The 24h refreshInterval is
// strictly less than the 25h lookAheadWindow, so the defaults satisfy the
// refreshInterval < lookAheadWindow rule that validate enforces
// (SPEC_FULL.md §10.2).
func DefaultConfig() Config {
	return Config{
		ChunkSize:       1000,
		RefreshInterval: 24 * time.Hour,
		LookAheadWindow: 25 * time.Hour,
		AutoCleanup: AutoCleanupConfig{
			Enabled:                true,
			Interval:               24 * time.Hour,
			CompletedJobsRetention: 7 * 24 * time.Hour,
			CancelledJobsRetention: 30 * 24 * time.Hour,
		},
		Retry: DefaultRetryConfig(),
	}
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig, leaving
// any field the file omits at its default value.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DB == "" {
		return newErr(KindConfig, "config", fmt.Errorf("db is required"))
	}
	if c.RefreshInterval >= c.LookAheadWindow {
		return newErr(KindConfig, "config", fmt.Errorf("refreshInterval (%s) must be strictly less than lookAheadWindow (%s)", c.RefreshInterval, c.LookAheadWindow))
	}
	if c.ChunkSize <= 0 {
		return newErr(KindConfig, "config", fmt.Errorf("chunkSize must be positive, got %d", c.ChunkSize))
	}
	return nil
}

// configWatcher watches a config file for changes and reloads the subset of
// fields that are safe to hot-swap (chunkSize, refreshInterval,
// lookAheadWindow, retry, cleanup retention — everything except db, which
// needs a fresh store handle). Adapted from
// internal/config/hotreload.go's debounced fsnotify.Watcher +
// ChangeHandler list.
type configWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	onChange func(Config)
	stopCh   chan struct{}
}

func newConfigWatcher(path string, onChange func(Config)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new config watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch config %s: %w", path, err)
	}
	return &configWatcher{
		path:     path,
		watcher:  w,
		debounce: 300 * time.Millisecond,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

func (cw *configWatcher) start() {
	go cw.loop()
}

func (cw *configWatcher) loop() {
	var pending *time.Timer
	for {
		select {
		case <-cw.stopCh:
			if pending != nil {
				pending.Stop()
			}
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(cw.debounce, cw.reload)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("cronsched: config watcher error", "error", err)
		}
	}
}

func (cw *configWatcher) reload() {
	cfg, err := LoadConfigFile(cw.path)
	if err != nil {
		slog.Warn("cronsched: config reload failed, keeping previous config", "error", err)
		return
	}
	cw.mu.Lock()
	handler := cw.onChange
	cw.mu.Unlock()
	if handler != nil {
		handler(cfg)
	}
}

func (cw *configWatcher) stop() {
	close(cw.stopCh)
	cw.watcher.Close()
}
