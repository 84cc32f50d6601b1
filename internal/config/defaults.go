package config

const (
	defaultDataDir               = "~/.local/share/bandstand/data"
	defaultLogDir                = "~/.local/share/bandstand/logs"
	defaultAPIBind               = "127.0.0.1:7787"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/bandstand/bandstand"
	defaultLLMTitle              = "Bandstand"
	defaultLLMTimeoutSeconds     = 30
	defaultStorageInitTimeout    = 15
	defaultStorageRequestTimeout = 30
	defaultSyncIntervalSeconds   = 300
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Band: Band{
			Name: "The Band",
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Storage: Storage{
			InitTimeoutSeconds:    defaultStorageInitTimeout,
			RequestTimeoutSeconds: defaultStorageRequestTimeout,
		},
		Archive: Archive{
			SyncEnabled:         false,
			SyncIntervalSeconds: defaultSyncIntervalSeconds,
			SeedDemoAssets:      true,
		},
		Social: Social{
			DefaultPlatforms: []string{"twitter", "instagram"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Uploads:        true,
			Verification:   true,
			Drafts:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
