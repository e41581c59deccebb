package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env string

	// Client side.
	APIBaseURL     string
	APITimeout     time.Duration
	SessionBackend string
	SessionDSN     string
	SessionPrefix  string
	SessionTTL     time.Duration
	RedisAddr      string
	QueueBackend   string
	QueueKey       string
	MetricsAddr    string

	// Development backend.
	HTTPPort        string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RateLimitPerMin int
	Seed            bool
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8000"),
		APITimeout:      durationEnv("API_TIMEOUT", 15*time.Second),
		SessionBackend:  getEnv("SESSION_BACKEND", "sqlite"),
		SessionDSN:      getEnv("SESSION_DSN", defaultSessionDSN()),
		SessionPrefix:   getEnv("SESSION_PREFIX", "campusevents:"),
		SessionTTL:      durationEnv("SESSION_TTL", 0),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:    getEnv("QUEUE_BACKEND", "redis"),
		QueueKey:        getEnv("QUEUE_KEY", "campusevents:checkins"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		HTTPPort:        getEnv("HTTP_PORT", "8000"),
		JWTIssuer:       getEnv("JWT_ISSUER", "campusevents-devapi"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 12*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 600),
		Seed:            boolEnv("DEVAPI_SEED", true),
	}
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

func defaultSessionDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "campusevents-session.db"
	}
	return dir + "/campusevents/session.db"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
