package util

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads the .env file matching the current APP_ENV
// (.env.development, .env.production, ...), falling back to plain .env.
func LoadEnv(env string) error {
	candidates := []string{fmt.Sprintf(".env.%s", env), ".env"}
	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return godotenv.Load(name)
		}
	}
	return fmt.Errorf("no env file found for %s", env)
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(os.Getenv(key))
}
