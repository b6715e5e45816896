package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	os.Setenv("TYPESENSE_API_KEY", "test-key")
	defer func() {
		os.Unsetenv("TYPESENSE_URL")
		os.Unsetenv("TYPESENSE_API_KEY")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify Typesense config
	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("TYPESENSE_API_KEY")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "xyz", cfg.Typesense.APIKey)
	assert.Equal(t, "csv", cfg.Catalog.Source)
	assert.Equal(t, "medbridge-engine", cfg.OTEL.ServiceName)
}

func TestLoad_EngineConfig(t *testing.T) {
	os.Setenv("SUPERVISOR_LLM_ENABLED", "false")
	os.Setenv("VECTOR_SEARCH_TIMEOUT", "5s")
	defer func() {
		os.Unsetenv("SUPERVISOR_LLM_ENABLED")
		os.Unsetenv("VECTOR_SEARCH_TIMEOUT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.False(t, cfg.Engine.SupervisorLLMEnabled)
	assert.Equal(t, 5*time.Second, cfg.Engine.VectorSearchTimeout)
	assert.Equal(t, 20*time.Second, cfg.Engine.SynthesisTimeout)
}

func TestLoad_GroqDefaults(t *testing.T) {
	os.Unsetenv("GROQ_MODEL")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "openai/gpt-oss-120b", cfg.Groq.Model)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.FallbackModel)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
}
