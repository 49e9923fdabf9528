package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath string
	DBDriver  string
	DBPath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresRetries  int

	RawCSVPath string

	HashInputDir    string
	HashWorkers     int
	HashRateLimitMs int

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] could not read .env: %v", err)
	}

	return &Config{
		InputPath: getEnv("BOOKS_INPUT_PATH", "./task1_d.json"),
		DBDriver:  strings.ToLower(getEnv("BOOKS_DB_DRIVER", DriverSQLite)),
		DBPath:    getEnv("BOOKS_DB_PATH", "./task1.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "books"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "books"),
		PostgresDB:       getEnv("POSTGRES_DB", "books_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresRetries:  getEnvInt("POSTGRES_CONNECT_RETRIES", 5),

		RawCSVPath: getEnv("RAW_CSV_PATH", ""),

		HashInputDir:    getEnv("HASH_INPUT_DIR", "./input"),
		HashWorkers:     getEnvInt("HASH_WORKERS", 4),
		HashRateLimitMs: getEnvInt("HASH_RATE_LIMIT_MS", 0),

		Debug: getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
