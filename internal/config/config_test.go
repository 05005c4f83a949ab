package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.AppPort != "9000" {
		t.Errorf("AppPort = %q, want 9000", cfg.AppPort)
	}
	if cfg.CronSpec != "*/30 * * * *" {
		t.Errorf("CronSpec = %q", cfg.CronSpec)
	}
	if cfg.OracleURL != "" {
		t.Errorf("OracleURL = %q, want empty", cfg.OracleURL)
	}
	if cfg.OracleTimeout != 30*time.Second {
		t.Errorf("OracleTimeout = %v, want 30s", cfg.OracleTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("ORACLE_URL", "http://oracle:5000/analyze")
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "10")
	t.Setenv("ORACLE_TIMEOUT_SECONDS_BAD", "xx") // 不相关变量不影响

	cfg := Load()
	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, want 8080", cfg.AppPort)
	}
	if cfg.OracleURL != "http://oracle:5000/analyze" {
		t.Errorf("OracleURL = %q", cfg.OracleURL)
	}
	if cfg.OracleTimeout != 10*time.Second {
		t.Errorf("OracleTimeout = %v, want 10s", cfg.OracleTimeout)
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "not-a-number")
	cfg := Load()
	if cfg.OracleTimeout != 30*time.Second {
		t.Errorf("OracleTimeout = %v, want default 30s", cfg.OracleTimeout)
	}
}
