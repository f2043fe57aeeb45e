package config

const (
	defaultProjectDir     = "."
	defaultBind           = "127.0.0.1:8765"
	defaultRequestTimeout = 10
	defaultCacheFile      = ".progress_cache"
	defaultPollInterval   = 0
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
		},
		Progress: Progress{
			CacheFile:    defaultCacheFile,
			PollInterval: defaultPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
