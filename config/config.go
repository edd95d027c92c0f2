package config

import (
	"os"
	"strconv"
	"time"
)

// Config 服务配置，全部来自环境变量，未设置时取默认值
type Config struct {
	Port           string
	FrontendURL    string
	StorageBackend string // memory | redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionTTL     time.Duration // 空闲超时，超过即被后台清扫
	SweepInterval  string        // cron 表达式
	DatasetPath    string
	SeedPath       string
	IntentPath     string
	LookupTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		StorageBackend: getEnv("SESSION_STORAGE", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval:  getEnv("SESSION_SWEEP_CRON", "@every 1m"),
		DatasetPath:    getEnv("DATASET_PATH", "./data/support.db"),
		SeedPath:       getEnv("DATASET_SEED_PATH", "./data/seed.json"),
		IntentPath:     getEnv("INTENT_CONFIG_PATH", "./config/intents.yaml"),
		LookupTimeout:  getEnvDuration("LOOKUP_TIMEOUT", 3*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
