package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. Values come from
// the environment so deployments stay twelve-factor.
type Config struct {
	Addr string

	// DatabaseURL selects the postgres stores. Empty falls back to in-memory
	// stores, which is the mode unit tests and local demos run in.
	DatabaseURL string

	Redis RedisConfig

	// KafkaBrokers enables the audit event publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	TokenTTL      time.Duration

	// Seed admin credentials for the back office. The password is bcrypt-hashed
	// on startup and never stored in plain text.
	AdminUsername string
	AdminPassword string

	// DocumentDir is the filesystem blob root. GCSBucket, when set, switches
	// document storage to Google Cloud Storage.
	DocumentDir string
	GCSBucket   string

	ViaCEPBaseURL    string
	BrasilAPIBaseURL string

	// SendGridAPIKey switches notification delivery from console to SendGrid.
	SendGridAPIKey string
	EmailFrom      string
}

// RedisConfig tunes the optional redis client used for CNPJ result caching and
// login lockout counters.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CNPJCacheTTL bounds how long an external registry verdict may be reused.
var CNPJCacheTTL = 24 * time.Hour

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("CREDENCIA_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AuditTopic:       getenv("AUDIT_TOPIC", "credencia.audit"),
		JWTSigningKey:    getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:         getenvDuration("TOKEN_TTL", 8*time.Hour),
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getenv("ADMIN_PASSWORD", "admin"),
		DocumentDir:      getenv("DOCUMENT_DIR", "./data/documents"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		ViaCEPBaseURL:    getenv("VIACEP_BASE_URL", "https://viacep.com.br/ws"),
		BrasilAPIBaseURL: getenv("BRASILAPI_BASE_URL", "https://brasilapi.com.br/api/cnpj/v1"),
		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:        getenv("EMAIL_FROM", "no-reply@credencia.local"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
