package config

const (
	defaultDataDir            = "~/.local/share/reelhouse"
	defaultSegmentsDir        = "segments"
	defaultLogDir             = "~/.local/share/reelhouse/logs"
	defaultThumbnailArgs      = "-y -ss 0 -i {input} -vf thumbnail,scale=320:-2 -frames:v 1 {output}"
	defaultCategorizeArgs     = "-y -ss 1 -i {input} -frames:v 1 -q:v 2 {output}"
	defaultTaggingEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultTaggingModel       = "gpt-4.1-mini"
	defaultTaggingPublicURL   = "http://127.0.0.1:8080"
	defaultTaggingTimeout     = 60
	defaultQueuePollInterval  = 3
	defaultErrorRetryInterval = 5
	defaultStaleAfterSeconds  = 3600
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			SegmentsDir: defaultSegmentsDir,
			LogDir:      defaultLogDir,
		},
		Tools: Tools{
			ThumbnailArgs:  defaultThumbnailArgs,
			CategorizeArgs: defaultCategorizeArgs,
		},
		Tagging: Tagging{
			Endpoint:       defaultTaggingEndpoint,
			Model:          defaultTaggingModel,
			PublicBaseURL:  defaultTaggingPublicURL,
			TimeoutSeconds: defaultTaggingTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			StaleAfterSeconds:  defaultStaleAfterSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
