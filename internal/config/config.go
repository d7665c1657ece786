package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultClientOrigins is used when CLIENT_ORIGINS is empty.
var DefaultClientOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:5000",
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	Database DatabaseConfig
	JWT      JWTConfig

	ClientOrigins []string
	PublicBaseURL string
	UploadDir     string
	MaxUploadMB   int64

	RedisURL string
	Events   EventsConfig
}

type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	Secret    string
	ExpiresIn string
}

type EventsConfig struct {
	KafkaBrokers []string
	TopicPrefix  string
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UseSSL mirrors the driver rule: explicit require/prefer, or production.
func (d DatabaseConfig) UseSSL(production bool) bool {
	switch strings.ToLower(d.SSLMode) {
	case "require", "prefer", "verify-ca", "verify-full":
		return true
	case "disable":
		return false
	}
	return production
}

// DSN returns a libpq style connection string.
func (d DatabaseConfig) DSN(production bool) string {
	if d.URL != "" {
		if d.UseSSL(production) && !strings.Contains(d.URL, "sslmode=") {
			sep := "?"
			if strings.Contains(d.URL, "?") {
				sep = "&"
			}
			return d.URL + sep + "sslmode=require"
		}
		return d.URL
	}

	sslMode := "disable"
	if d.UseSSL(production) {
		sslMode = "require"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode, int(d.ConnectTimeout.Seconds()))
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	cfg := &Config{
		Port:          getEnv("PORT", "5000"),
		Environment:   env,
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		ClientOrigins: splitList(os.Getenv("CLIENT_ORIGINS")),
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:   int64(getEnvInt("MAX_UPLOAD_MB", 200)),
		RedisURL:      os.Getenv("REDIS_URL"),
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			Host:           os.Getenv("PGHOST"),
			Port:           getEnv("PGPORT", "5432"),
			User:           os.Getenv("PGUSER"),
			Password:       os.Getenv("PGPASSWORD"),
			Name:           os.Getenv("PGDATABASE"),
			SSLMode:        os.Getenv("PGSSLMODE"),
			MaxOpenConns:   getEnvInt("PGPOOL_MAX", 10),
			IdleTimeout:    getEnvDuration("PG_IDLE_TIMEOUT", 30*time.Second),
			ConnectTimeout: getEnvDuration("PG_CONNECT_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			ExpiresIn: getEnv("JWT_EXPIRES", "1d"),
		},
		Events: EventsConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			TopicPrefix:  getEnv("EVENTS_TOPIC_PREFIX", "urtim."),
		},
	}

	if len(cfg.ClientOrigins) == 0 {
		cfg.ClientOrigins = DefaultClientOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required keys are present.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.URL == "" {
		for key, val := range map[string]string{
			"PGHOST":     c.Database.Host,
			"PGUSER":     c.Database.User,
			"PGPASSWORD": c.Database.Password,
			"PGDATABASE": c.Database.Name,
		} {
			if val == "" {
				return fmt.Errorf("%s is required when DATABASE_URL is not set", key)
			}
		}
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("30s") or plain milliseconds ("30000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
