package config

import (
	"os"
	"strconv"
	"time"

	"factoryqa-data/pkg/database"
)

// Config factoryqa-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database database.DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Seed  SeedConfig
	Cache CacheConfig
}

// SeedConfig 种子数据来源配置
type SeedConfig struct {
	// Path 本地种子文件路径，启动时数据库为空则导入
	Path string
	// RemoteURL 远端种子 JSON 地址，空则禁用远端同步
	RemoteURL string
}

// CacheConfig 会话缓存配置
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "factoryqa")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Seed.Path = getEnv("SEED_PATH", "seed-data.json")
	cfg.Seed.RemoteURL = getEnv("REMOTE_SEED_URL", "")

	cfg.Cache.Enabled = getEnv("CACHE_ENABLED", "true") == "true"
	cfg.Cache.TTL = time.Duration(parseInt(getEnv("CACHE_TTL_SECONDS", "86400"), 86400)) * time.Second

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
