package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/config"
	"github.com/yndnr/supportform/internal/core/service"
	"github.com/yndnr/supportform/internal/infra/buildinfo"
	"github.com/yndnr/supportform/internal/infra/confloader"
	"github.com/yndnr/supportform/internal/infra/tlsroots"
	"github.com/yndnr/supportform/internal/storage"
	"github.com/yndnr/supportform/internal/storage/memory"
	"github.com/yndnr/supportform/internal/telemetry/logger"
	"github.com/yndnr/supportform/internal/telemetry/metric"
	"github.com/yndnr/supportform/internal/transport/assistant"
	"github.com/yndnr/supportform/internal/transport/submission"
)

// Runtime holds the components a command works with.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metric.Registry
	Store      *storage.Store
	Wizard     *service.Wizard
	Submission *service.SubmissionService
	Assist     *service.AssistService

	// badger is set when the badger backend is in use.
	badger *storage.BadgerBackend
}

// overrides maps global flags onto configuration keys.
func overrides(flags *GlobalFlags) map[string]any {
	out := map[string]any{}
	if flags.DataDir != "" {
		out["storage.data_dir"] = flags.DataDir
	}
	if flags.Ephemeral {
		out["storage.backend"] = storage.KindMemory
	}
	return out
}

// loadConfig layers defaults, the config file, SUPPORTFORM_* variables
// and flags, then verifies the result.
func loadConfig(flags *GlobalFlags) (*config.Config, error) {
	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(flags.Config),
		confloader.WithOverrides(overrides(flags)),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openRuntime loads configuration and builds the wizard and its services.
// Interactive commands log at warn unless --verbose; serve uses the
// configured level.
func openRuntime(c *cli.Context, server bool) (*Runtime, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return newRuntime(c.Context, cfg, runtimeOptions{
		verbose: flags.Verbose,
		server:  server,
		logOut:  stderr(c),
	})
}

type runtimeOptions struct {
	verbose bool
	server  bool
	logOut  io.Writer
}

func newRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*Runtime, error) {
	level := cfg.Log.Level
	switch {
	case opts.verbose:
		level = "debug"
	case !opts.server:
		level = "warn"
	}
	log, err := logger.New(logger.Config{Level: level, Format: cfg.Log.Format, Output: opts.logOut})
	if err != nil {
		return nil, err
	}

	var roots *tlsroots.Pool
	if cfg.Security.CAFile != "" {
		if roots, err = tlsroots.LoadPool(cfg.Security.CAFile); err != nil {
			return nil, err
		}
		log.Debug("trusting extra CA bundle", "ca_file", cfg.Security.CAFile, "certs", roots.Added())
	}

	rt := &Runtime{Config: cfg, Logger: log, Metrics: metric.NewRegistry()}

	backend, err := rt.openBackend()
	if err != nil {
		return nil, err
	}
	rt.Store = storage.NewStore(backend, storage.WithLogger(log), storage.WithMetrics(rt.Metrics))

	rt.Wizard = service.NewWizard(ctx, service.WizardDeps{
		Store:   rt.Store,
		Logger:  log,
		Metrics: rt.Metrics,
	}, wizardConfig(cfg))

	rt.Submission = service.NewSubmissionService(rt.Wizard, submissionTransport(cfg, roots, log), cfg.Submission.Timeout, log, rt.Metrics)

	var generator service.TextGenerator
	if cfg.Assist.APIKey != "" {
		ac := assistant.Config{
			Endpoint: cfg.Assist.Endpoint,
			APIKey:   cfg.Assist.APIKey,
			Model:    cfg.Assist.Model,
		}
		if roots != nil {
			ac.HTTPClient = roots.HTTPClient(cfg.Assist.Timeout)
		}
		generator = assistant.New(ac)
	}
	rt.Assist = service.NewAssistService(rt.Wizard, generator, service.AssistConfig{
		MinInterval: cfg.Assist.MinInterval,
		MaxRetries:  cfg.Assist.MaxRetries,
		RetryDelay:  cfg.Assist.RetryDelay,
		CacheTTL:    cfg.Assist.CacheTTL,
		Timeout:     cfg.Assist.Timeout,
	}, log, rt.Metrics)

	return rt, nil
}

func (rt *Runtime) openBackend() (storage.Backend, error) {
	cfg := rt.Config
	var backend storage.Backend
	if cfg.Storage.Backend == storage.KindMemory {
		backend = memory.New()
	} else {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		storeCfg := storage.DefaultConfig(cfg.Storage.DataDir)
		storeCfg.Kind = cfg.Storage.Backend
		storeCfg.Badger.GCInterval = cfg.Storage.GCInterval
		storeCfg.Badger.SyncWrites = cfg.Storage.SyncWrites

		b, err := storage.Open(storeCfg, rt.Logger)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", storeCfg.Kind, err)
		}
		if bb, ok := b.(*storage.BadgerBackend); ok {
			rt.badger = bb.RegisterMetrics(rt.Metrics.Prometheus())
		}
		backend = b
	}

	if cfg.Security.Passphrase == "" {
		return backend, nil
	}
	sealed, err := storage.NewSealedBackend(backend, []byte(cfg.Security.Passphrase))
	if err != nil {
		backend.Close()
		return nil, err
	}
	return sealed, nil
}

func wizardConfig(cfg *config.Config) service.WizardConfig {
	return service.WizardConfig{
		Key:         cfg.Storage.Key,
		Debounce:    cfg.Wizard.Debounce,
		VerifyDelay: cfg.Wizard.VerifyDelay,
		SettleDelay: cfg.Wizard.SettleDelay,
		Reset: service.ResetConfig{
			MaxVerifyAttempts:   cfg.Wizard.MaxVerifyAttempts,
			QuiescenceDelay:     cfg.Wizard.QuiescenceDelay,
			NuclearVerifyDelay:  cfg.Wizard.NuclearVerifyDelay,
			NuclearReleaseDelay: cfg.Wizard.NuclearReleaseDelay,
		},
	}
}

// submissionTransport posts to the configured endpoint, or records the
// application locally when none is set. roots, when set, is trusted on
// top of the system roots.
func submissionTransport(cfg *config.Config, roots *tlsroots.Pool, log *slog.Logger) service.Transport {
	if cfg.Submission.Endpoint == "" {
		return submission.NewLoopback(log)
	}
	opts := []submission.Option{submission.WithUserAgent(buildinfo.UserAgent())}
	if roots != nil {
		opts = append(opts, submission.WithHTTPClient(roots.HTTPClient(cfg.Submission.Timeout)))
	}
	return submission.NewHTTPClient(cfg.Submission.Endpoint, cfg.Submission.Timeout, opts...)
}

// Close flushes the pending draft write and releases the store.
func (rt *Runtime) Close(ctx context.Context) error {
	flushErr := rt.Wizard.Flush(ctx)
	rt.Wizard.Close()
	return errors.Join(flushErr, rt.Store.Close())
}

// Compact reclaims disk space left by removed drafts. It is a no-op for
// backends other than badger.
func (rt *Runtime) Compact(ctx context.Context) {
	if rt.badger == nil {
		return
	}
	if runs, err := rt.badger.GC(ctx); err != nil {
		rt.Logger.Warn("compact store", "error", err)
	} else {
		rt.Logger.Debug("store compacted", "runs", runs)
	}
}

// withRuntime runs fn against a fresh runtime and closes it afterwards.
func withRuntime(c *cli.Context, fn func(rt *Runtime) error) (err error) {
	rt, err := openRuntime(c, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(c.Context)); cerr != nil && err == nil {
			err = fmt.Errorf("save draft: %w", cerr)
		}
	}()
	return fn(rt)
}
