package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// 全量采集的 cron 表达式；单源有自己的 interval_seconds
	CronSpec string

	// AI 打分服务（oracle），为空则全部走中性评分
	OracleURL     string
	OracleTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=newsquant password=newsquant dbname=newsquant port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6380"),
		CronSpec:      getEnv("CRON_SPEC", "*/30 * * * *"),
		OracleURL:     getEnv("ORACLE_URL", ""),
		OracleTimeout: time.Duration(getEnvInt("ORACLE_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	log.Printf("config loaded: port=%s cron=%s oracle=%v", cfg.AppPort, cfg.CronSpec, cfg.OracleURL != "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
