package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTemp(t, `
postgres:
  dsn: "postgres://localhost/jaspy"
redis:
  addr: "localhost:6379"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
	if cfg.DeviceTTL != DefaultDeviceTTL {
		t.Errorf("DeviceTTL = %v, want %v", cfg.DeviceTTL, DefaultDeviceTTL)
	}
	if cfg.SchedulerPeriod != DefaultSchedulerPeriod {
		t.Errorf("SchedulerPeriod = %v, want %v", cfg.SchedulerPeriod, DefaultSchedulerPeriod)
	}
	if cfg.TopologyCacheTTL != DefaultTopologyCacheTTL {
		t.Errorf("TopologyCacheTTL = %v, want %v", cfg.TopologyCacheTTL, DefaultTopologyCacheTTL)
	}
	if cfg.Redis.Channel != DefaultChannel {
		t.Errorf("Redis.Channel = %q, want %q", cfg.Redis.Channel, DefaultChannel)
	}
}

func TestLoad_RejectsMissingDSN(t *testing.T) {
	path := writeTemp(t, `
redis:
  addr: "localhost:6379"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing postgres.dsn")
	}
}

func TestLoad_RejectsNegativeTopologyTTL(t *testing.T) {
	path := writeTemp(t, `
postgres:
  dsn: "postgres://localhost/jaspy"
redis:
  addr: "localhost:6379"
topology_cache_ttl: -1s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-positive topology_cache_ttl")
	}
}

func TestLoad_CustomValuesPreserved(t *testing.T) {
	path := writeTemp(t, `
listen_addr: ":9090"
postgres:
  dsn: "postgres://localhost/jaspy"
  max_conns: 25
redis:
  addr: "localhost:6379"
  channel: "custom:events"
device_ttl: 30s
scheduler_period: 2s
topology_cache_ttl: 15s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("Postgres.MaxConns = %d", cfg.Postgres.MaxConns)
	}
	if cfg.Redis.Channel != "custom:events" {
		t.Errorf("Redis.Channel = %q", cfg.Redis.Channel)
	}
	if cfg.DeviceTTL != 30*time.Second {
		t.Errorf("DeviceTTL = %v", cfg.DeviceTTL)
	}
}
