package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 3001 {
		t.Fatalf("expected default port 3001, got %d", cfg.Port)
	}
	if cfg.InactivityTimeout != 30*time.Second {
		t.Fatalf("expected 30s inactivity window, got %v", cfg.InactivityTimeout)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Fatalf("expected 30s heartbeat interval, got %v", cfg.HeartbeatInterval)
	}
	if !cfg.Development() {
		t.Fatal("default env should be development")
	}
	if cfg.Redis.Addr != "" || cfg.Kafka.Brokers != nil {
		t.Fatal("redis and kafka should be off by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("INACTIVITY_TIMEOUT_MS", "1500")
	t.Setenv("HEARTBEAT_INTERVAL_SECONDS", "5")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 4000 {
		t.Fatalf("expected port 4000, got %d", cfg.Port)
	}
	if cfg.InactivityTimeout != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s inactivity window, got %v", cfg.InactivityTimeout)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Fatalf("expected 5s heartbeat interval, got %v", cfg.HeartbeatInterval)
	}
	if cfg.Development() {
		t.Fatal("production env should not report development")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}

	t.Setenv("PORT", "3001")
	t.Setenv("REDIS_ADDR", "no-port-here")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for redis addr without port")
	}
}
