package config

const (
	defaultConfigPath          = "~/.config/highlighter/config.toml"
	defaultLiveRootDir         = "~/recordings"
	defaultLogDir              = "~/.local/share/highlighter/logs"
	defaultStateDir            = "~/.local/share/highlighter"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultWebhookRoute        = "/v1/video2script"
	defaultGatewayWorkers      = 1
	defaultGatewayQueueDepth   = 64
	defaultSampleRate          = 16000
	defaultChannels            = 1
	defaultWhisperXModel       = "large-v3"
	defaultLanguage            = "zh"
	defaultVADMethod           = "silero"
	defaultTranscribeTimeout   = 7200
	defaultWindowSize          = 64
	defaultStride              = 4
	defaultMaxTextLength       = 512
	defaultSeparator           = " "
	defaultTopK                = 3
	defaultMinAcousticMillis   = 200
	defaultAlignment           = AlignmentNominal
	defaultAcousticWeight      = 0.70
	defaultIndividualWeight    = 0.15
	defaultWindowWeight        = 0.15
	defaultSentimentURL        = "http://127.0.0.1:8081/sentiment"
	defaultEmotionURL          = "http://127.0.0.1:8082/emotion"
	defaultClassifierTimeout   = 60
	defaultNotifyThreshold     = 0.86
	defaultNotifyTimeout       = 10
	defaultClipThreshold       = 0.86
	defaultClipPaddingSeconds  = 5
	defaultLLMBaseURL          = "https://api.openai.com/v1"
	defaultLLMModel            = "gpt-4o-mini"
	defaultLLMReferer          = "https://github.com/highlighter/highlighter"
	defaultLLMTitle            = "Highlighter Title Generator"
	defaultLLMTimeoutSeconds   = 60
	defaultLLMMaxTitleChars    = 10
	defaultWatchSettleSeconds  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultClassifierRateLimit = 0
)

// Alignment modes for per-segment score streams.
const (
	AlignmentNominal   = "nominal"
	AlignmentTruncated = "truncated"
)

var defaultWatchExtensions = []string{".flv", ".mp4", ".mkv", ".ts"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LiveRootDir: defaultLiveRootDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
			APIBind:     defaultAPIBind,
		},
		Webhook: Webhook{
			Route: defaultWebhookRoute,
		},
		Gateway: Gateway{
			Workers:    defaultGatewayWorkers,
			QueueDepth: defaultGatewayQueueDepth,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
		},
		Transcription: Transcription{
			WhisperXModel:  defaultWhisperXModel,
			Language:       defaultLanguage,
			VADMethod:      defaultVADMethod,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Scoring: Scoring{
			WindowSize:        defaultWindowSize,
			Stride:            defaultStride,
			MaxTextLength:     defaultMaxTextLength,
			Separator:         defaultSeparator,
			TopK:              defaultTopK,
			MinAcousticMillis: defaultMinAcousticMillis,
			Alignment:         defaultAlignment,
			Weights: Weights{
				Acoustic:   defaultAcousticWeight,
				Individual: defaultIndividualWeight,
				Window:     defaultWindowWeight,
			},
		},
		Classifiers: Classifiers{
			SentimentURL:      defaultSentimentURL,
			EmotionURL:        defaultEmotionURL,
			TimeoutSeconds:    defaultClassifierTimeout,
			RequestsPerSecond: defaultClassifierRateLimit,
		},
		Clips: Clips{
			Threshold:      defaultClipThreshold,
			PaddingSeconds: defaultClipPaddingSeconds,
		},
		Notifications: Notifications{
			Threshold:      defaultNotifyThreshold,
			RequestTimeout: defaultNotifyTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTitleChars:  defaultLLMMaxTitleChars,
		},
		Watch: Watch{
			Extensions:    append([]string(nil), defaultWatchExtensions...),
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
