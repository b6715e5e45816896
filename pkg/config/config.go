package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Groq      GroqConfig
	Engine    EngineConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// CatalogConfig controls where the facility catalog is loaded from
type CatalogConfig struct {
	// Source is "csv" or "postgres"
	Source  string
	CSVPath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// GroqConfig holds Groq LLM configuration
type GroqConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
	BaseURL       string
}

// EngineConfig holds orchestration engine knobs
type EngineConfig struct {
	// SupervisorLLMEnabled allows the supervisor to fall back to the LLM
	// classifier when pattern matching is inconclusive.
	SupervisorLLMEnabled bool
	VectorSearchTimeout  time.Duration
	SynthesisTimeout     time.Duration
	ControlPlaneTimeout  time.Duration
	// CoverageGridMinDeg bounds how fine a coverage grid may get.
	CoverageGridMinDeg float64
	QueryCacheTTL      time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Catalog: CatalogConfig{
			Source:  getEnv("CATALOG_SOURCE", "csv"),
			CSVPath: getEnv("CATALOG_CSV_PATH", "data/ghana_facilities.csv"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "medbridge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Groq: GroqConfig{
			APIKey:        getEnv("GROQ_API_KEY", ""),
			Model:         getEnv("GROQ_MODEL", "openai/gpt-oss-120b"),
			FallbackModel: getEnv("GROQ_FALLBACK_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:       getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		},
		Engine: EngineConfig{
			SupervisorLLMEnabled: getEnvAsBool("SUPERVISOR_LLM_ENABLED", true),
			VectorSearchTimeout:  getEnvAsDuration("VECTOR_SEARCH_TIMEOUT", 30*time.Second),
			SynthesisTimeout:     getEnvAsDuration("SYNTHESIS_TIMEOUT", 20*time.Second),
			ControlPlaneTimeout:  getEnvAsDuration("CONTROL_PLANE_TIMEOUT", 10*time.Second),
			CoverageGridMinDeg:   getEnvAsFloat("COVERAGE_GRID_MIN_DEG", 0.1),
			QueryCacheTTL:        getEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medbridge-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
