package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorageDriverPrecedence(t *testing.T) {
	cfg := &Config{}
	if got := cfg.StorageDriver(); got != DriverMemory {
		t.Fatalf("expected memory, got %s", got)
	}
	cfg.SQLite.Path = "/tmp/ledger.db"
	if got := cfg.StorageDriver(); got != DriverSQLite {
		t.Fatalf("expected sqlite, got %s", got)
	}
	cfg.Postgres.DSN = "postgres://localhost/ledger"
	if got := cfg.StorageDriver(); got != DriverPostgres {
		t.Fatalf("expected postgres, got %s", got)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_CATALOG_TTL_SECONDS", "30")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("EXPORT_S3_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr: %s", cfg.App.Addr())
	}
	if cfg.Redis.CatalogTTL() != 30*time.Second {
		t.Fatalf("unexpected ttl: %v", cfg.Redis.CatalogTTL())
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Fatalf("invalid timeout should fall back to default, got %v", cfg.App.RequestTimeout())
	}
	if !cfg.Export.S3PathStyle {
		t.Fatalf("expected path style")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed("")
	if err != nil || len(seed.Departments) != 0 {
		t.Fatalf("empty path: %+v %v", seed, err)
	}

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := "departments: [Physio, Cardio]\nroles:\n  - Nurse\nadmins:\n  - name: Root\n    email: root@clinic.io\n    password: pw\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	seed, err = LoadSeed(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seed.Departments) != 2 || seed.Roles[0] != "Nurse" || seed.Admins[0].Email != "root@clinic.io" {
		t.Fatalf("unexpected seed: %+v", seed)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("admins:\n  - name: NoMail\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSeed(bad); err == nil {
		t.Fatalf("expected validation error")
	}
}
