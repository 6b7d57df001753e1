package config

import "time"

// Config is the root configuration.
type Config struct {
	Storage    StorageSection    `koanf:"storage" yaml:"storage"`
	Wizard     WizardSection     `koanf:"wizard" yaml:"wizard"`
	Security   SecuritySection   `koanf:"security" yaml:"security"`
	Submission SubmissionSection `koanf:"submission" yaml:"submission"`
	Assist     AssistSection     `koanf:"assist" yaml:"assist"`
	Server     ServerSection     `koanf:"server" yaml:"server"`
	Log        LogSection        `koanf:"log" yaml:"log"`
}

// StorageSection selects and tunes the draft store.
type StorageSection struct {
	// Backend is badger, sqlite or memory.
	Backend string `koanf:"backend" yaml:"backend"`
	DataDir string `koanf:"data_dir" yaml:"data_dir"`
	Key     string `koanf:"key" yaml:"key"`

	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// WizardSection holds the draft engine timings.
type WizardSection struct {
	Debounce            time.Duration `koanf:"debounce" yaml:"debounce"`
	VerifyDelay         time.Duration `koanf:"verify_delay" yaml:"verify_delay"`
	SettleDelay         time.Duration `koanf:"settle_delay" yaml:"settle_delay"`
	QuiescenceDelay     time.Duration `koanf:"quiescence_delay" yaml:"quiescence_delay"`
	MaxVerifyAttempts   int           `koanf:"max_verify_attempts" yaml:"max_verify_attempts"`
	NuclearVerifyDelay  time.Duration `koanf:"nuclear_verify_delay" yaml:"nuclear_verify_delay"`
	NuclearReleaseDelay time.Duration `koanf:"nuclear_release_delay" yaml:"nuclear_release_delay"`
}

// SecuritySection configures at-rest encryption of the draft.
type SecuritySection struct {
	// Passphrase enables the sealed store when set.
	Passphrase string `koanf:"passphrase" yaml:"passphrase"`

	// CAFile is a PEM bundle trusted in addition to the system roots for
	// calls to the submission endpoint and the assistant.
	CAFile string `koanf:"ca_file" yaml:"ca_file"`
}

// SubmissionSection configures the submission transport. An empty
// Endpoint selects the offline loopback transport.
type SubmissionSection struct {
	Endpoint string        `koanf:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout"`
}

// AssistSection configures the writing assistant. Assistance is
// disabled while APIKey is empty.
type AssistSection struct {
	Endpoint    string        `koanf:"endpoint" yaml:"endpoint"`
	APIKey      string        `koanf:"api_key" yaml:"api_key"`
	Model       string        `koanf:"model" yaml:"model"`
	MinInterval time.Duration `koanf:"min_interval" yaml:"min_interval"`
	MaxRetries  int           `koanf:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `koanf:"retry_delay" yaml:"retry_delay"`
	CacheTTL    time.Duration `koanf:"cache_ttl" yaml:"cache_ttl"`
	Timeout     time.Duration `koanf:"timeout" yaml:"timeout"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	RateLimit       float64       `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst       int           `koanf:"rate_burst" yaml:"rate_burst"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins" yaml:"cors_origins"`

	// TLSCertFile and TLSKeyFile switch the API to HTTPS. The pair is
	// reloaded when the files change.
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
