package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-studio/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort         string
	JWTSecret          string
	JWTExpiration      time.Duration
	DatabaseDir        string
	DatabaseFile       string
	EnableDataBinding  bool
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	ComponentCatalog   string // optional YAML file overriding the embedded catalog
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := os.Getenv("JWT_SECRET") // No sensible default for secret!
	jwtExpHoursStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_FILE", "studio.db")
	bindingStr := getEnv("ENABLE_DATA_BINDING", "true")
	originsStr := getEnv("CORS_ALLOWED_ORIGINS", "*")
	rateStr := getEnv("RATE_LIMIT_PER_MINUTE", "120")

	// --- Validation and Parsing ---
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}

	jwtExpHours, err := strconv.Atoi(jwtExpHoursStr)
	if err != nil || jwtExpHours <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_HOURS '%s'. Using default 24h. Error: %v", jwtExpHoursStr, err)
		jwtExpHours = 24
	}

	enableBinding, err := strconv.ParseBool(bindingStr)
	if err != nil {
		customLog.Warnf("Invalid ENABLE_DATA_BINDING '%s'. Data binding stays enabled.", bindingStr)
		enableBinding = true
	}

	rateLimit, err := strconv.Atoi(rateStr)
	if err != nil || rateLimit <= 0 {
		customLog.Warnf("Invalid RATE_LIMIT_PER_MINUTE '%s'. Using default 120.", rateStr)
		rateLimit = 120
	}

	cfg := &Config{
		ServerPort:         strings.TrimPrefix(port, ":"),
		JWTSecret:          jwtSecret,
		JWTExpiration:      time.Hour * time.Duration(jwtExpHours),
		DatabaseDir:        dbDir,
		DatabaseFile:       dbFile,
		EnableDataBinding:  enableBinding,
		CORSAllowedOrigins: splitList(originsStr),
		RateLimitPerMinute: rateLimit,
		ComponentCatalog:   os.Getenv("COMPONENT_CATALOG"),
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, DB: %s/%s, Data binding: %v",
		cfg.ServerPort, cfg.DatabaseDir, cfg.DatabaseFile, cfg.EnableDataBinding)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
