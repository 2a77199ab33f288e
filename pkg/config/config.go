package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Login     LoginConfig
	Stats     StatsConfig
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SQLitePath     string
	ConnectRetries int
	RetryDelay     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

const minSecretLength = 16

var ErrInsecureSecret = errors.New("JWT_SECRET must be set to a private value of at least 16 characters")

// placeholderSecrets are values copied from examples that must never sign sessions.
var placeholderSecrets = map[string]bool{
	"change-me": true,
	"changeme":  true,
	"secret":    true,
}

// Validate refuses an unset, placeholder or short signing secret.
func (c SessionConfig) Validate() error {
	if len(c.Secret) < minSecretLength || placeholderSecrets[c.Secret] {
		return ErrInsecureSecret
	}
	return nil
}

type LoginConfig struct {
	MaxFailures       int
	Lockout           time.Duration
	RequestsPerSecond int
}

type StatsConfig struct {
	MinYear   int
	YearRange int
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", DriverPostgres),
			Host:           getEnv("DB_HOST", "postgres"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "program"),
			Password:       getEnv("DB_PASSWORD", "test"),
			Name:           getEnv("DB_NAME", "digitrack"),
			SQLitePath:     getEnv("SQLITE_PATH", "digitrack.db"),
			ConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 10),
			RetryDelay:     getEnvDuration("DB_RETRY_DELAY", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
			Secure: getEnvBool("SESSION_SECURE", false),
		},
		Login: LoginConfig{
			MaxFailures:       getEnvInt("LOGIN_MAX_FAILURES", 4),
			Lockout:           getEnvDuration("LOGIN_LOCKOUT", 5*time.Minute),
			RequestsPerSecond: getEnvInt("LOGIN_RPS", 10),
		},
		Stats: StatsConfig{
			MinYear:   getEnvInt("STATS_MIN_YEAR", 2024),
			YearRange: getEnvInt("STATS_YEAR_RANGE", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
