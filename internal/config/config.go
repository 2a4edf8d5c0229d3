package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	Secure        bool   // Use HTTPS-only cookies
	Environment   string // "development", "production", "test"
	LogLevel      string
	AllowedOrigin string // Frontend origin allowed for CORS, empty disables CORS
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig holds the generative-text provider settings and the fixed
// generation parameters sent with every suggestion request.
type AIConfig struct {
	GeminiAPIKey    string
	GeminiBaseURL   string
	GeminiModel     string
	Timeout         time.Duration
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
	Stub            bool
	RateLimit       int64 // suggestions per user per hour, 0 means environment default
}

// ClientConfig holds the settings of the resumectl command-line client.
type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// LoadClient reads the command-line client settings. It does not validate
// server settings.
func LoadClient() ClientConfig {
	_ = godotenv.Load()

	return ClientConfig{
		APIURL:  getEnv("RESUME_API_URL", "http://localhost:8080"),
		Token:   getEnv("RESUME_API_TOKEN", ""),
		Timeout: getEnvDuration("RESUME_API_TIMEOUT", 60*time.Second),
	}
}

// SuggestionsPerHour resolves AI_RATE_LIMIT. Zero selects a strict default in
// production and a generous one elsewhere.
func (c *Config) SuggestionsPerHour() int {
	if c.AI.RateLimit > 0 {
		return int(c.AI.RateLimit)
	}
	if c.Server.Environment == "production" {
		return 30
	}
	return 300
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			Secure:        getEnvBool("SERVER_SECURE", false),
			Environment:   getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "resume"),
			Password: getEnv("DB_PASSWORD", "resume"),
			DBName:   getEnv("DB_NAME", "resumebuilder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AI: AIConfig{
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:         getEnvDuration("AI_TIMEOUT", 30*time.Second),
			Temperature:     getEnvFloat("AI_TEMPERATURE", 0.7),
			TopK:            getEnvInt("AI_TOP_K", 40),
			TopP:            getEnvFloat("AI_TOP_P", 0.9),
			MaxOutputTokens: getEnvInt("AI_MAX_OUTPUT_TOKENS", 300),
			Stub:            getEnvBool("AI_STUB", false),
			RateLimit:       int64(getEnvInt("AI_RATE_LIMIT", 0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.TopP <= 0 || c.AI.TopP > 1 {
		return fmt.Errorf("AI_TOP_P must be in (0, 1], got %v", c.AI.TopP)
	}
	if c.AI.TopK <= 0 {
		return fmt.Errorf("AI_TOP_K must be positive, got %d", c.AI.TopK)
	}
	if c.AI.MaxOutputTokens <= 0 {
		return fmt.Errorf("AI_MAX_OUTPUT_TOKENS must be positive, got %d", c.AI.MaxOutputTokens)
	}
	if c.AI.RateLimit < 0 {
		return fmt.Errorf("AI_RATE_LIMIT must not be negative, got %d", c.AI.RateLimit)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
