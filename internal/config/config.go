package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigins lists the browser origins permitted by CORS.
	// Empty means same-origin only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// Driver selects the snapshot store backend: "pgx" for Postgres or
// "sqlite3" for a local single-user file.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=pgx sqlite3"`
	URL    string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	// RequestTimeoutSeconds bounds each classifier/decomposer/suggester call.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// PipelineConfig contains the classification pipeline settings.
type PipelineConfig struct {
	// DebounceMillis is the quiet period after the last queued text before a
	// batch is flushed to the classifier.
	DebounceMillis int `mapstructure:"debounce_millis" validate:"required,gt=0"`
}
