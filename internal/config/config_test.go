package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.GRPC.Addr != ":50051" {
		t.Fatalf("addrs = %q %q", cfg.HTTP.Addr, cfg.GRPC.Addr)
	}
	if cfg.Store.Driver != StoreMemory || cfg.MaxAttempts != 3 || !cfg.GraphQLEnabled() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
service_name: bank-test
http:
  addr: ":9000"
  graphql: false
store:
  driver: mysql
  auto_migrate: true
mysql:
  host: db
  db_name: bank
  conn_max_lifetime: 5m
tracing:
  endpoint: http://collector:4318
  sample_ratio: 0.25
shutdown_timeout: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "bank-test" || cfg.HTTP.Addr != ":9000" || cfg.GraphQLEnabled() {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Store.Driver != StoreMySQL || !cfg.Store.AutoMigrate {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.MySQL.ConnMaxLifetime != 5*time.Minute || cfg.MySQL.Port != 3306 || cfg.MySQL.MaxOpenConns != 100 {
		t.Fatalf("mysql = %+v", cfg.MySQL)
	}
	if cfg.Tracing.Endpoint != "http://collector:4318" || cfg.Tracing.SampleRatio != 0.25 {
		t.Fatalf("tracing = %+v", cfg.Tracing)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown = %v", cfg.ShutdownTimeout)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
store:
  driver: memory
`)
	t.Setenv("BANK_HTTP_ADDR", ":7000")
	t.Setenv("BANK_STORE_WAL_PATH", "/tmp/bank.wal")
	t.Setenv("BANK_STORE_LOAN_WAL_PATH", "/tmp/loans.wal")
	t.Setenv("BANK_OTEL_ENDPOINT", "http://otel:4318")
	t.Setenv("BANK_MAX_ATTEMPTS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":7000" || cfg.Store.WALPath != "/tmp/bank.wal" || cfg.Store.LoanWALPath != "/tmp/loans.wal" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Tracing.Endpoint != "http://otel:4318" || cfg.MaxAttempts != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "store:\n  driver: redis\n"},
		{"mysql without host", "store:\n  driver: mysql\n"},
		{"bad ratio", "tracing:\n  sample_ratio: 2\n"},
		{"bad yaml", "http: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("BANK_MAX_ATTEMPTS", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
