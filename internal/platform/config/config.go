// Package config derives process configuration from the environment so main
// stays lean. Detection thresholds are validated by their owning packages at
// construction, not here.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string

	PostgresDSN string
	Redis       Redis
	Kafka       Kafka

	Detection Detection
}

// Redis captures redis connection settings. An empty URL disables the stats
// cache.
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the report publishing settings. Empty brokers disable the
// outbox worker.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Detection captures engine thresholds. All values are overridable per
// deployment.
type Detection struct {
	VelocityWindow     time.Duration
	HourBandStart      int
	HourBandEnd        int
	VerifiedDeathsOnly bool
	MediumAt           int
	HighAt             int
	StatsCacheTTL      time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envString("SCRUTINY_ADDR", ":8080"),
		LogLevel:      envString("SCRUTINY_LOG_LEVEL", "info"),
		JWTSigningKey: envString("SCRUTINY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envString("SCRUTINY_JWT_ISSUER", "scrutiny"),
		PostgresDSN:   envString("SCRUTINY_POSTGRES_DSN", ""),
		Redis: Redis{
			URL:          envString("SCRUTINY_REDIS_URL", ""),
			PoolSize:     envInt("SCRUTINY_REDIS_POOL_SIZE", 10),
			DialTimeout:  envDuration("SCRUTINY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SCRUTINY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SCRUTINY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("SCRUTINY_KAFKA_BROKERS"),
			Topic:   envString("SCRUTINY_KAFKA_TOPIC", "scrutiny.detection-reports"),
		},
		Detection: Detection{
			VelocityWindow:     envDuration("SCRUTINY_VELOCITY_WINDOW", 5*time.Second),
			HourBandStart:      envInt("SCRUTINY_HOUR_BAND_START", 6),
			HourBandEnd:        envInt("SCRUTINY_HOUR_BAND_END", 22),
			VerifiedDeathsOnly: envBool("SCRUTINY_VERIFIED_DEATHS_ONLY", true),
			MediumAt:           envInt("SCRUTINY_SEVERITY_MEDIUM_AT", 5),
			HighAt:             envInt("SCRUTINY_SEVERITY_HIGH_AT", 20),
			StatsCacheTTL:      envDuration("SCRUTINY_STATS_CACHE_TTL", time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
