package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr     string
	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	JWTSecret    string

	RateLimitPerMin int64
	ShutdownTimeout time.Duration
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8023"),
		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:       getEnv("REDIS_PASS", ""),
		KafkaBrokers:    getEnvSlice("KAFKA_BROKERS", []string{"kafka:9092"}),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		RateLimitPerMin: getEnvInt64("RATE_LIMIT_PER_MIN", 120),
		ShutdownTimeout: time.Duration(getEnvInt64("SHUTDOWN_TIMEOUT_SEC", 15)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}
