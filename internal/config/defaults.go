package config

const (
	defaultDataDir              = "~/.local/share/tracklift/data"
	defaultLogDir               = "~/.local/share/tracklift/logs"
	defaultAPIBind              = "127.0.0.1:7319"
	defaultRegion               = "us-east-1"
	defaultPresignExpirySeconds = 3600
	defaultFetchTimeoutSeconds  = 60
	defaultQueuePollInterval    = 5
	defaultErrorRetryInterval   = 10
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Storage: Storage{
			Region:               defaultRegion,
			PresignExpirySeconds: defaultPresignExpirySeconds,
		},
		Ingest: Ingest{
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Jobs:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
