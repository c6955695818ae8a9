package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Env  string
	Port int

	InactivityTimeoutMS      int
	HeartbeatIntervalSeconds int
	WriteDeadlineSeconds     int
	MaxMessageSizeBytes      int64
	SendBufferSize           int
	RateLimitPerSec          int

	PrometheusEnabled bool

	Redis RedisConfig
	Kafka KafkaConfig

	// derived
	InactivityTimeout time.Duration
	HeartbeatInterval time.Duration
	WriteDeadline     time.Duration
}

// Load reads settings from the process environment, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 3001)
	v.SetDefault("INACTIVITY_TIMEOUT_MS", 30000)
	v.SetDefault("HEARTBEAT_INTERVAL_SECONDS", 30)
	v.SetDefault("WRITE_DEADLINE_SECONDS", 10)
	v.SetDefault("MAX_MESSAGE_SIZE_BYTES", 64*1024)
	v.SetDefault("SEND_BUFFER_SIZE", 256)
	v.SetDefault("RATE_LIMIT_PER_SEC", 20)
	v.SetDefault("PROMETHEUS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "relay")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "relay.audit")

	cfg := &Config{
		Env:                      v.GetString("APP_ENV"),
		Port:                     v.GetInt("PORT"),
		InactivityTimeoutMS:      v.GetInt("INACTIVITY_TIMEOUT_MS"),
		HeartbeatIntervalSeconds: v.GetInt("HEARTBEAT_INTERVAL_SECONDS"),
		WriteDeadlineSeconds:     v.GetInt("WRITE_DEADLINE_SECONDS"),
		MaxMessageSizeBytes:      v.GetInt64("MAX_MESSAGE_SIZE_BYTES"),
		SendBufferSize:           v.GetInt("SEND_BUFFER_SIZE"),
		RateLimitPerSec:          v.GetInt("RATE_LIMIT_PER_SEC"),
		PrometheusEnabled:        v.GetBool("PROMETHEUS_ENABLED"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if cfg.InactivityTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid INACTIVITY_TIMEOUT_MS: %d", cfg.InactivityTimeoutMS)
	}
	if cfg.HeartbeatIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid HEARTBEAT_INTERVAL_SECONDS: %d", cfg.HeartbeatIntervalSeconds)
	}
	if cfg.Redis.Addr != "" && !strings.Contains(cfg.Redis.Addr, ":") {
		return nil, fmt.Errorf("invalid REDIS_ADDR: %s (must be host:port)", cfg.Redis.Addr)
	}

	cfg.InactivityTimeout = time.Duration(cfg.InactivityTimeoutMS) * time.Millisecond
	cfg.HeartbeatInterval = time.Duration(cfg.HeartbeatIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WriteDeadlineSeconds) * time.Second
	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) PortString() string {
	return fmt.Sprintf("%d", c.Port)
}

func (c *Config) Development() bool {
	return c.Env != "production"
}
