package cronsched

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ValidateRequiresDB(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.validate(); !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig for missing db, got %v", err)
	}
}

func TestConfig_ValidateRejectsRefreshIntervalNotLessThanWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB = "test.db"
	cfg.RefreshInterval = time.Hour
	cfg.LookAheadWindow = time.Hour
	if err := cfg.validate(); !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig when refreshInterval == lookAheadWindow, got %v", err)
	}

	cfg.RefreshInterval = 2 * time.Hour
	if err := cfg.validate(); !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig when refreshInterval > lookAheadWindow, got %v", err)
	}
}

func TestConfig_DefaultsSatisfyInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB = "test.db"
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.RefreshInterval >= cfg.LookAheadWindow {
		t.Errorf("default RefreshInterval (%s) must be < LookAheadWindow (%s)", cfg.RefreshInterval, cfg.LookAheadWindow)
	}
}

func TestLoadConfigFile_OverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "db: /var/lib/cronsched/cron.db\nchunkSize: 500\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.DB != "/var/lib/cronsched/cron.db" {
		t.Errorf("DB = %q, want override", cfg.DB)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.LookAheadWindow != DefaultConfig().LookAheadWindow {
		t.Errorf("LookAheadWindow = %s, want default preserved", cfg.LookAheadWindow)
	}
}

func TestLoadConfigFile_MissingFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyHotReload_MergesTunablesOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB = filepath.Join(t.TempDir(), "cron.db")
	onErrorCalled := false
	cfg.OnError = func(string, error) { onErrorCalled = true }

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Destroy() })

	newCfg := cfg
	newCfg.ChunkSize = 42
	newCfg.DB = "should-not-apply.db"
	newCfg.RefreshInterval = 3 * time.Hour
	newCfg.LookAheadWindow = 4 * time.Hour

	s.applyHotReload(newCfg)

	got := s.getCfg()
	if got.ChunkSize != 42 {
		t.Errorf("ChunkSize = %d, want 42 after hot reload", got.ChunkSize)
	}
	if got.DB != cfg.DB {
		t.Errorf("DB = %q, want unchanged %q", got.DB, cfg.DB)
	}
	if got.OnError == nil {
		t.Fatal("expected OnError to be preserved across hot reload")
	}
	got.OnError("x", nil)
	if !onErrorCalled {
		t.Error("expected preserved OnError callback to still be the original")
	}
}

func TestApplyHotReload_RejectsInvalidMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB = filepath.Join(t.TempDir(), "cron.db")

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Destroy() })

	before := *s.getCfg()

	newCfg := cfg
	newCfg.RefreshInterval = newCfg.LookAheadWindow // now invalid: not strictly less
	s.applyHotReload(newCfg)

	after := *s.getCfg()
	if after.RefreshInterval != before.RefreshInterval {
		t.Errorf("expected invalid hot reload to be rejected, RefreshInterval changed from %s to %s", before.RefreshInterval, after.RefreshInterval)
	}
}
