package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/yndnr/supportform/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyStorage(&cfg.Storage, &cfg.Security),
		verifyWizard(&cfg.Wizard),
		verifySubmission(&cfg.Submission),
		verifyAssist(&cfg.Assist),
		verifyServer(&cfg.Server),
		verifyLog(&cfg.Log),
	)
}

func verifyStorage(cfg *StorageSection, sec *SecuritySection) error {
	switch cfg.Backend {
	case "badger", "sqlite":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the " + cfg.Backend + " backend")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend must be badger, sqlite or memory, got %q", cfg.Backend)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return errors.New("storage.key is required")
	}
	if sec.Passphrase != "" && len(sec.Passphrase) < 8 {
		return errors.New("security.passphrase must be at least 8 characters")
	}
	if sec.CAFile != "" {
		if err := verifyFile("security.ca_file", sec.CAFile); err != nil {
			return err
		}
	}
	return nil
}

func verifyWizard(cfg *WizardSection) error {
	if cfg.Debounce <= 0 {
		return errors.New("wizard.debounce must be positive")
	}
	if cfg.VerifyDelay <= 0 || cfg.SettleDelay <= 0 || cfg.QuiescenceDelay <= 0 {
		return errors.New("wizard reset delays must be positive")
	}
	if cfg.MaxVerifyAttempts < 1 {
		return errors.New("wizard.max_verify_attempts must be at least 1")
	}
	return nil
}

func verifySubmission(cfg *SubmissionSection) error {
	if cfg.Endpoint != "" {
		if err := verifyURL("submission.endpoint", cfg.Endpoint); err != nil {
			return err
		}
	}
	if cfg.Timeout <= 0 {
		return errors.New("submission.timeout must be positive")
	}
	return nil
}

func verifyAssist(cfg *AssistSection) error {
	if cfg.APIKey == "" {
		return nil
	}
	if err := verifyURL("assist.endpoint", cfg.Endpoint); err != nil {
		return err
	}
	if cfg.MaxRetries < 1 {
		return errors.New("assist.max_retries must be at least 1")
	}
	if cfg.MinInterval < 0 || cfg.RetryDelay < 0 {
		return errors.New("assist intervals cannot be negative")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit cannot be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.rate_burst must be at least 1 when rate limiting is on")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("server.tls_cert_file and server.tls_key_file must be set together")
	}
	if cfg.TLSCertFile != "" {
		return errors.Join(
			verifyFile("server.tls_cert_file", cfg.TLSCertFile),
			verifyFile("server.tls_key_file", cfg.TLSKeyFile),
		)
	}
	return nil
}

func verifyFile(name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", name, path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
}

func verifyURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
