package main

import (
	"os"
	"strings"

	"bandstand/internal/config"
)

// Environment variables that override config file values. These exist so
// secrets can live in the process environment (or a .env file) instead of
// the config file on disk.
const (
	envLLMAPIKey        = "BANDSTAND_LLM_API_KEY"
	envStorageAuthToken = "BANDSTAND_STORAGE_AUTH_TOKEN"
	envAPIToken         = "BANDSTAND_API_TOKEN"
	envNtfyTopic        = "BANDSTAND_NTFY_TOPIC"
)

func applyEnvOverrides(cfg *config.Config) {
	if v := envValue(envLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := envValue(envStorageAuthToken); v != "" {
		cfg.Storage.AuthToken = v
	}
	if v := envValue(envAPIToken); v != "" {
		cfg.Paths.APIToken = v
	}
	if v := envValue(envNtfyTopic); v != "" {
		cfg.Notifications.NtfyTopic = v
	}
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
