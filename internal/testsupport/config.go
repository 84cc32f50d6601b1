package testsupport

import (
	"path/filepath"
	"testing"

	"bandstand/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Band.Name = "The Midnight Echoes"
	cfg.Band.Knowledge = "The Midnight Echoes formed in 2008. Their first album was First Album, released in 2010."

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithLLM points the test config at a stub chat-completion endpoint.
func WithLLM(baseURL, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = baseURL
		cfg.LLM.APIKey = apiKey
	}
}

// WithBridge points the test config at a stub storage bridge.
func WithBridge(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.BridgeURL = baseURL
		cfg.Storage.Email = "test@example.com"
		cfg.Storage.Space = "test-space"
	}
}
