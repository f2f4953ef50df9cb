package config

import (
	"log"
	"os"
	"strings"
	"time"

	"CampusSOS/pkg/cache"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/util"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`

	Log   logger.LogConfig
	Cache cache.Config

	// Local view maintenance.
	RefreshLimit    int           `env:"REFRESH_LIMIT"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`

	// Location reporting. The campus coordinates seed the degraded-accuracy
	// fallback when a device fix is unavailable.
	LocationInterval time.Duration `env:"LOCATION_INTERVAL"`
	CampusLat        float64       `env:"CAMPUS_LAT"`
	CampusLon        float64       `env:"CAMPUS_LON"`

	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL"`

	// Nightly database dump; blank schedule disables it.
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
	BackupPath     string `env:"BACKUP_PATH"`

	// Security staff phone numbers for new-alert SMS, comma separated.
	SecurityPhones []string `env:"SECURITY_PHONES"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnvDefault("MODE", "debug"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				DefaultExpiration: durationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   durationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		RefreshLimit:     intEnvDefault("REFRESH_LIMIT", 50),
		RefreshInterval:  durationEnv("REFRESH_INTERVAL", 60*time.Second),
		LocationInterval: durationEnv("LOCATION_INTERVAL", 10*time.Second),
		CampusLat:        floatEnvDefault("CAMPUS_LAT", -15.5989),
		CampusLon:        floatEnvDefault("CAMPUS_LON", -56.0949),
		StatsCacheTTL:    durationEnv("STATS_CACHE_TTL", 30*time.Second),
		BackupSchedule:   util.GetEnv("BACKUP_SCHEDULE"),
		BackupPath:       util.GetEnvDefault("BACKUP_PATH", "backups"),
		SecurityPhones:   splitEnv("SECURITY_PHONES"),
	}
	return nil
}

func splitEnv(key string) []string {
	raw := util.GetEnv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := util.GetEnv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func intEnvDefault(key string, fallback int) int {
	if util.GetEnv(key) == "" {
		return fallback
	}
	return int(util.GetIntEnv(key))
}

func floatEnvDefault(key string, fallback float64) float64 {
	if util.GetEnv(key) == "" {
		return fallback
	}
	return util.GetFloatEnv(key)
}
