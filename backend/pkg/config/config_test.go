package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthgraph/backend/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		Env:                 "development",
		Neo4jURI:            "bolt://localhost:7687",
		Neo4jUser:           "neo4j",
		Neo4jPassword:       "password",
		Neo4jMaxPoolSize:    10,
		Neo4jConnectTimeout: 30,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateMissingRequiredFields(t *testing.T) {
	for _, tc := range []struct {
		field string
		mut   func(*Config)
	}{
		{"NEO4J_URI", func(c *Config) { c.Neo4jURI = "" }},
		{"NEO4J_USER", func(c *Config) { c.Neo4jUser = "" }},
		{"NEO4J_PASSWORD", func(c *Config) { c.Neo4jPassword = "" }},
	} {
		cfg := validConfig()
		tc.mut(cfg)
		err := cfg.Validate()
		require.Error(t, err, tc.field)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConfig), tc.field)

		var missing *errors.ErrConfigMissingRequired
		require.ErrorAs(t, err, &missing, tc.field)
		assert.Equal(t, tc.field, missing.Field)
	}
}

func TestValidateRejectsNonPositiveKnobs(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4jMaxPoolSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	cfg = validConfig()
	cfg.Neo4jConnectTimeout = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestEnvModes(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
