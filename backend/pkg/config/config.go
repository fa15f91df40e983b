package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"truthgraph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI             string
	Neo4jUser            string
	Neo4jPassword        string
	Neo4jMaxPoolSize     int
	Neo4jConnectTimeout  int // seconds

	// AI review
	ReviewAPIBaseURL string
	ReviewAPIKey     string
	ReviewModelID    string

	// System parameters
	DefaultConfidenceThreshold float64
	AxiomConfidence            float64
}

// PhysicsDomains is the canonical set of claim domains seeded by the system
var PhysicsDomains = []string{
	"physics.classical_mechanics",
	"physics.thermodynamics",
	"physics.electromagnetism",
	"physics.quantum_mechanics",
	"physics.relativity",
	"physics.statistical_mechanics",
	"physics.optics",
	"physics.nuclear",
	"physics.particle",
	"physics.condensed_matter",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jMaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 10),
		Neo4jConnectTimeout: getEnvInt("NEO4J_CONNECT_TIMEOUT", 30),
		ReviewAPIBaseURL:    getEnv("REVIEW_API_BASE_URL", "https://api.openai.com/v1"),
		ReviewAPIKey:        getEnv("REVIEW_API_KEY", ""),
		ReviewModelID:       getEnv("REVIEW_MODEL_ID", "gpt-4o"),

		DefaultConfidenceThreshold: getEnvFloat("DEFAULT_CONFIDENCE_THRESHOLD", 0.3),
		AxiomConfidence:            1.0,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return errors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return errors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return errors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.Neo4jMaxPoolSize <= 0 {
		return errors.NewValidation("NEO4J_MAX_POOL_SIZE", "must be positive")
	}
	if c.Neo4jConnectTimeout <= 0 {
		return errors.NewValidation("NEO4J_CONNECT_TIMEOUT", "must be positive")
	}
	// Review API key is optional; without it the review service runs simulated
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
