package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// PlatformURL is the base of the platform backend that receives result
	// records and activity-completion signals.
	PlatformURL string
	// ContentURL is the base of the content API used as a fallback source of
	// quiz definitions. Empty disables the fallback.
	ContentURL string

	SubmitTimeout time.Duration

	CORSOrigins []string
}

// FromEnv loads .env when present and reads the flat env config.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		PlatformURL:   envOr("PLATFORM_URL", "http://localhost:5000"),
		ContentURL:    os.Getenv("CONTENT_URL"),
		SubmitTimeout: envDuration("SUBMIT_TIMEOUT", 10*time.Second),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
