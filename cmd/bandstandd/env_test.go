package main

import (
	"testing"

	"bandstand/internal/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(envLLMAPIKey, "sk-env")
	t.Setenv(envAPIToken, " token-env ")
	t.Setenv(envNtfyTopic, "")

	cfg := config.Default()
	cfg.LLM.APIKey = "sk-file"
	cfg.Notifications.NtfyTopic = "band-updates"

	applyEnvOverrides(&cfg)

	if cfg.LLM.APIKey != "sk-env" {
		t.Fatalf("expected env key to win, got %q", cfg.LLM.APIKey)
	}
	if cfg.Paths.APIToken != "token-env" {
		t.Fatalf("expected trimmed api token, got %q", cfg.Paths.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "band-updates" {
		t.Fatalf("empty env value must not clear config, got %q", cfg.Notifications.NtfyTopic)
	}
}
