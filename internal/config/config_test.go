package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Monitor.CheckInterval() != 15*time.Minute {
		t.Fatalf("unexpected check interval: %v", cfg.Monitor.CheckInterval())
	}
	if cfg.Windows.Weekday.StartHour != 8 || cfg.Windows.Weekday.EndHour != 23 {
		t.Fatalf("unexpected weekday window: %+v", cfg.Windows.Weekday)
	}
	if cfg.Windows.Weekend.StartHour != 10 {
		t.Fatalf("unexpected weekend window: %+v", cfg.Windows.Weekend)
	}
	if cfg.Cache.StoreTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected store ttl: %v", cfg.Cache.StoreTTL())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := `
monitor:
  checkIntervalMinutes: 30
  urgentThresholdMinutes: 10
notificationWindows:
  weekend:
    startHour: 9
    endHour: 22
scraper:
  requestDelaySeconds: 0.5
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(haTokenEnv, "secret-token")
	t.Setenv(checkIntervalEnv, "45")

	cfg := Load()

	// env beats file, file beats defaults
	if cfg.Monitor.CheckIntervalMinutes != 45 {
		t.Fatalf("expected env interval 45, got %d", cfg.Monitor.CheckIntervalMinutes)
	}
	if cfg.Monitor.UrgentThresholdMinutes != 10 {
		t.Fatalf("expected threshold 10, got %d", cfg.Monitor.UrgentThresholdMinutes)
	}
	if cfg.Windows.Weekend.StartHour != 9 || cfg.Windows.Weekend.EndHour != 22 {
		t.Fatalf("unexpected weekend window: %+v", cfg.Windows.Weekend)
	}
	if cfg.Windows.Weekday.EndHour != 23 {
		t.Fatalf("weekday window default lost: %+v", cfg.Windows.Weekday)
	}
	if cfg.Notifications.HomeAssistant.Token != "secret-token" {
		t.Fatalf("token override missing")
	}
	if cfg.Scraper.RequestDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", cfg.Scraper.RequestDelay())
	}
}

func TestLoadRejectsInvalidIntervalEnv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(checkIntervalEnv, "zero")

	cfg := Load()
	if cfg.Monitor.CheckIntervalMinutes != 15 {
		t.Fatalf("invalid env should keep default, got %d", cfg.Monitor.CheckIntervalMinutes)
	}
}

func TestManagerSnapshotAndApply(t *testing.T) {
	t.Parallel()

	m := NewManager(defaultConfig())

	before := m.Snapshot()
	m.Apply(func(c Config) Config {
		c.Monitor.UrgentThresholdMinutes = 5
		return c
	})
	after := m.Snapshot()

	if before.Monitor.UrgentThresholdMinutes != 15 {
		t.Fatalf("snapshot mutated in place")
	}
	if after.Monitor.UrgentThresholdMinutes != 5 {
		t.Fatalf("apply not visible, got %d", after.Monitor.UrgentThresholdMinutes)
	}
}
