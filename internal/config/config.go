package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	Port       string
	CORSOrigin string

	// Storage
	StoreBackend string
	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	SQLitePath   string

	// Device tokens
	JWTSecret        string
	JWTExpirationDur time.Duration

	// IngestAPIKey guards batch ingestion when non-empty.
	IngestAPIKey string

	// ParserLocation is the zone used for message dates and clock times.
	ParserLocation *time.Location
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		// Storage
		StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "smsledger"),
		DBPassword:   getEnv("DB_PASSWORD", "smsledger"),
		DBName:       getEnv("DB_NAME", "smsledger"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath:   getEnv("SQLITE_PATH", "smsledger.db"),

		// Device tokens
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		IngestAPIKey: getEnv("INGEST_API_KEY", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "720h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 720h\n", expStr)
		expDur = 720 * time.Hour
	}
	config.JWTExpirationDur = expDur

	tz := getEnv("PARSER_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: unknown PARSER_TIMEZONE '%s', falling back to Local\n", tz)
		loc = time.Local
	}
	config.ParserLocation = loc

	switch config.StoreBackend {
	case StoreMemory, StoreDatabase:
	default:
		log.Printf("Warning: unknown STORE_BACKEND '%s', falling back to %s\n", config.StoreBackend, StoreMemory)
		config.StoreBackend = StoreMemory
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
