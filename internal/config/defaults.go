package config

const (
	defaultWorkDirName          = ".matscribe"
	defaultLogDir               = "~/.local/share/matscribe/logs"
	defaultConcurrency          = 2
	defaultSampleRate           = 16000
	defaultTranscriptionModel   = "base"
	defaultRemoteTimeoutSeconds = 300
	defaultRemoteMaxRetries     = 3
	defaultLocalBinary          = "whisper-cli"
	defaultLocalThreads         = 4
	defaultCorrectionBaseURL    = "http://localhost:1234/v1/chat/completions"
	defaultCorrectionModel      = "local-model"
	defaultCorrectionTimeout    = 60
	defaultCorrectionRetries    = 2
	defaultSubtitleLineChars    = 42
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

func defaultVideoExtensions() []string {
	return []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDirName: defaultWorkDirName,
			LogDir:      defaultLogDir,
		},
		Processing: Processing{
			Concurrency:     defaultConcurrency,
			VideoExtensions: defaultVideoExtensions(),
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
		},
		Transcription: Transcription{
			Providers:            []string{"remote", "local"},
			EnableFallback:       true,
			Model:                defaultTranscriptionModel,
			RemoteTimeoutSeconds: defaultRemoteTimeoutSeconds,
			RemoteMaxRetries:     defaultRemoteMaxRetries,
			LocalBinary:          defaultLocalBinary,
			LocalThreads:         defaultLocalThreads,
		},
		Correction: Correction{
			Enabled:        true,
			BaseURL:        defaultCorrectionBaseURL,
			Model:          defaultCorrectionModel,
			TimeoutSeconds: defaultCorrectionTimeout,
			MaxRetries:     defaultCorrectionRetries,
		},
		Subtitles: Subtitles{
			MaxLineChars:   defaultSubtitleLineChars,
			AlongsideVideo: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
