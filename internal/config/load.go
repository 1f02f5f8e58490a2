package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.request_timeout_seconds", 30)
	v.SetDefault("pipeline.debounce_millis", 1500)

	// Configure to read an optional config file from the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is a real error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Configure environment variables
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind critical environment variables
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "TRIAGE_SERVER_PORT"},
		{"server.log_level", "TRIAGE_SERVER_LOG_LEVEL"},
		{"server.allowed_origins", "TRIAGE_SERVER_ALLOWED_ORIGINS"},
		{"database.driver", "TRIAGE_DATABASE_DRIVER"},
		{"database.url", "TRIAGE_DATABASE_URL"},
		{"llm.gemini_api_key", "TRIAGE_LLM_GEMINI_API_KEY"},
		{"llm.model_name", "TRIAGE_LLM_MODEL_NAME"},
		{"llm.request_timeout_seconds", "TRIAGE_LLM_REQUEST_TIMEOUT_SECONDS"},
		{"pipeline.debounce_millis", "TRIAGE_PIPELINE_DEBOUNCE_MILLIS"},
	}

	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	// Unmarshal and validate
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
