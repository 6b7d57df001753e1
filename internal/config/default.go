package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultBackend    = "badger"
	DefaultStorageKey = "socialSupportFormData"
	DefaultGCInterval = 10 * time.Minute

	DefaultDebounce            = 300 * time.Millisecond
	DefaultVerifyDelay         = 200 * time.Millisecond
	DefaultSettleDelay         = 500 * time.Millisecond
	DefaultQuiescenceDelay     = time.Second
	DefaultMaxVerifyAttempts   = 5
	DefaultNuclearVerifyDelay  = 100 * time.Millisecond
	DefaultNuclearReleaseDelay = 2 * time.Second

	DefaultSubmissionTimeout = 30 * time.Second

	DefaultAssistEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultAssistModel       = "gpt-3.5-turbo"
	DefaultAssistMinInterval = 2 * time.Second
	DefaultAssistMaxRetries  = 3
	DefaultAssistRetryDelay  = time.Second
	DefaultAssistCacheTTL    = 5 * time.Minute
	DefaultAssistTimeout     = 30 * time.Second

	DefaultServerAddr      = "127.0.0.1:5080"
	DefaultRateLimit       = 20
	DefaultRateBurst       = 40
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultDataDir returns the per-user data directory, falling back to
// ./supportform-data when no config directory is known.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "supportform")
	}
	return "supportform-data"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Backend:    DefaultBackend,
			DataDir:    DefaultDataDir(),
			Key:        DefaultStorageKey,
			GCInterval: DefaultGCInterval,
			SyncWrites: true,
		},
		Wizard: WizardSection{
			Debounce:            DefaultDebounce,
			VerifyDelay:         DefaultVerifyDelay,
			SettleDelay:         DefaultSettleDelay,
			QuiescenceDelay:     DefaultQuiescenceDelay,
			MaxVerifyAttempts:   DefaultMaxVerifyAttempts,
			NuclearVerifyDelay:  DefaultNuclearVerifyDelay,
			NuclearReleaseDelay: DefaultNuclearReleaseDelay,
		},
		Submission: SubmissionSection{
			Timeout: DefaultSubmissionTimeout,
		},
		Assist: AssistSection{
			Endpoint:    DefaultAssistEndpoint,
			Model:       DefaultAssistModel,
			MinInterval: DefaultAssistMinInterval,
			MaxRetries:  DefaultAssistMaxRetries,
			RetryDelay:  DefaultAssistRetryDelay,
			CacheTTL:    DefaultAssistCacheTTL,
			Timeout:     DefaultAssistTimeout,
		},
		Server: ServerSection{
			Addr:            DefaultServerAddr,
			RateLimit:       DefaultRateLimit,
			RateBurst:       DefaultRateBurst,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
