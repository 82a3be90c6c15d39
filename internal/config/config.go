package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// session tokens
	JWTSecret      string
	SessionTTLDays int

	// notifier
	SMTPHost string
	SMTPPort int
	SMTPFrom string

	// redis (rate limiting); optional, limiter falls back to in-memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CORS allow-list (comma separated origins)
	AllowedOrigins []string

	// initial faculty account seeded at startup
	FacultyEmail    string
	FacultyPassword string
	FacultyName     string

	OTLPEndpoint string

	// worker
	WorkerPollInterval time.Duration
	WorkerConcurrency  int
}

func Load() Config {
	// best effort; in prod everything comes from real env vars
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTLDays: getEnvInt("SESSION_TTL_DAYS", 7),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPFrom: getEnv("SMTP_FROM", "Campus Events <no-reply@campusevents.local>"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		FacultyEmail:    getEnv("FACULTY_SEED_EMAIL", ""),
		FacultyPassword: getEnv("FACULTY_SEED_PASSWORD", ""),
		FacultyName:     getEnv("FACULTY_SEED_NAME", "Campus Admin"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 500*time.Millisecond),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
	}
}

func (c Config) SessionTTL() time.Duration {
	days := c.SessionTTLDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "campusevents")
	pass := getEnv("DB_PASSWORD", "campusevents")
	name := getEnv("DB_NAME", "campusevents")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
