package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Band.KnowledgeFile) != "" {
		if c.Band.KnowledgeFile, err = expandPath(c.Band.KnowledgeFile); err != nil {
			return err
		}
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.Storage.BridgeURL = strings.TrimSuffix(strings.TrimSpace(c.Storage.BridgeURL), "/")
	c.Storage.Email = strings.TrimSpace(c.Storage.Email)
	c.Storage.Space = strings.TrimSpace(c.Storage.Space)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	if c.Storage.InitTimeoutSeconds <= 0 {
		c.Storage.InitTimeoutSeconds = defaultStorageInitTimeout
	}
	if c.Storage.RequestTimeoutSeconds <= 0 {
		c.Storage.RequestTimeoutSeconds = defaultStorageRequestTimeout
	}
	if c.Archive.SyncIntervalSeconds <= 0 {
		c.Archive.SyncIntervalSeconds = defaultSyncIntervalSeconds
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	platforms := make([]string, 0, len(c.Social.DefaultPlatforms))
	for _, platform := range c.Social.DefaultPlatforms {
		trimmed := strings.ToLower(strings.TrimSpace(platform))
		if trimmed != "" {
			platforms = append(platforms, trimmed)
		}
	}
	if len(platforms) > 0 {
		c.Social.DefaultPlatforms = platforms
	}

	return nil
}
