package config

import "os"

// AIConfig holds the discussion generator configuration
type AIConfig struct {
	APIKey  string `json:"-"` // Never serialize
	BaseURL string `json:"baseUrl"`

	// Model generates topic discussions; it sits on the join/respond hot
	// path, so it needs to be fast.
	Model string `json:"model"`

	TimeoutMS  int `json:"timeoutMs"`
	MaxRetries int `json:"maxRetries"`
}

// DefaultAIConfig returns the default generator configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta/models",
		Model:      getEnvOrDefault("GEMINI_MODEL_DISCUSSION", "gemini-2.0-flash"),
		TimeoutMS:  10000, // 10 second default timeout
		MaxRetries: 3,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full generateContent endpoint for the model
func (c *AIConfig) ModelEndpoint() string {
	return c.BaseURL + "/" + c.Model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
