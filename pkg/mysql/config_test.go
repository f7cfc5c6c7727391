package mysql

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{MaxOpenConns: 5}
	cfg.ApplyDefaults()
	if cfg.Port != 3306 || cfg.MaxIdleConns != 10 || cfg.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.MaxOpenConns != 5 {
		t.Fatalf("explicit value overwritten: %d", cfg.MaxOpenConns)
	}
	if cfg.MaxRetries != 10 || cfg.RetryInterval != 2*time.Second {
		t.Fatalf("retry defaults not applied: %+v", cfg)
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3307, User: "bank", Password: "secret", DBName: "rpg"}
	want := "bank:secret@tcp(db:3307)/rpg?charset=utf8mb4&parseTime=True&loc=Local"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"info", "warn", "error", "silent", ""} {
		if newLogger(level) == nil {
			t.Fatalf("nil logger for %q", level)
		}
	}
}
