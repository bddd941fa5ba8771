package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-this-in-production"

// Config holds the settings of both services. Fields that only one
// service reads are left at their defaults by the other.
type Config struct {
	Service              string
	Port                 string
	AllowedOrigins       []string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	LogLevel             string
	OTLPEndpoint         string

	Redis   RedisConfig
	Breaker BreakerConfig

	// auth service
	JWTSecret          string
	TokenTTL           time.Duration
	LoginAttemptWindow time.Duration

	// shopping service
	AuthServiceURL      string
	AuthClientTimeout   time.Duration
	StockCacheTTL       time.Duration
	CartCleanupInterval time.Duration
	AdminKey            string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BreakerConfig controls when a cache is considered unreachable.
type BreakerConfig struct {
	ConsecutiveFailures int
	OpenTimeout         time.Duration
}

// LoadConfig reads the environment for the named service ("auth" or "shopping").
func LoadConfig(service string) *Config {
	defaultPort := "8081"
	if service == "shopping" {
		defaultPort = "8082"
	}
	port := GetEnv("PORT", defaultPort)

	allowedOrigins := []string{
		"http://localhost",
		"http://localhost:3000",
	}
	if extra := GetEnv("ALLOWED_ORIGINS", ""); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	// Append simple_protocol for PgBouncer compatibility (pgx driver)
	dbURL := GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", ""))
	if dbURL != "" && service == "shopping" {
		if u, err := url.Parse(dbURL); err == nil {
			q := u.Query()
			if q.Get("default_query_exec_mode") == "" {
				q.Set("default_query_exec_mode", "simple_protocol")
				u.RawQuery = q.Encode()
				dbURL = u.String()
			}
		}
	}

	jwtSecret := GetEnv("JWT_SECRET", defaultJWTSecret)
	if service == "auth" && jwtSecret == defaultJWTSecret {
		log.Println("[CONFIG] Warning: JWT_SECRET not set, using development default")
	}

	return &Config{
		Service:              service,
		Port:                 port,
		AllowedOrigins:       allowedOrigins,
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:         GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_URL", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: GetEnvAsInt("CACHE_BREAKER_FAILURES", 3),
			OpenTimeout:         time.Duration(GetEnvAsInt("CACHE_BREAKER_OPEN_SECONDS", 30)) * time.Second,
		},
		JWTSecret:           jwtSecret,
		TokenTTL:            time.Duration(GetEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		LoginAttemptWindow:  time.Duration(GetEnvAsInt("LOGIN_ATTEMPT_WINDOW_MINUTES", 15)) * time.Minute,
		AuthServiceURL:      strings.TrimRight(GetEnv("AUTH_SERVICE_URL", "http://localhost:8081"), "/"),
		AuthClientTimeout:   time.Duration(GetEnvAsInt("AUTH_CLIENT_TIMEOUT_SECONDS", 5)) * time.Second,
		StockCacheTTL:       time.Duration(GetEnvAsInt("STOCK_CACHE_TTL_MINUTES", 60)) * time.Minute,
		CartCleanupInterval: time.Duration(GetEnvAsInt("CART_CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
		AdminKey:            GetEnv("ADMIN_KEY", ""),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
