package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/infra/buildinfo"
	"github.com/yndnr/supportform/internal/infra/confloader"
	"github.com/yndnr/supportform/internal/infra/shutdown"
	"github.com/yndnr/supportform/internal/infra/tlsroots"
	"github.com/yndnr/supportform/internal/server/httpserver"
	"github.com/yndnr/supportform/internal/server/httpserver/handler"
	"github.com/yndnr/supportform/internal/telemetry/logger"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the draft over the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	rt, err := openRuntime(c, true)
	if err != nil {
		return err
	}
	log := rt.Logger
	cfg := rt.Config

	addr := cfg.Server.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Deps: handler.Deps{
			Wizard:     rt.Wizard,
			Submission: rt.Submission,
			Assist:     rt.Assist,
			Logger:     log,
		},
		Logger:      log,
		Metrics:     rt.Metrics,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	srv := httpserver.New(addr, router)

	var keypair *tlsroots.Keypair
	if cfg.Server.TLSCertFile != "" {
		keypair, err = tlsroots.LoadKeypair(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile, tlsroots.WithLogger(log))
		if err != nil {
			return errors.Join(err, rt.Close(c.Context))
		}
		if err := keypair.Watch(); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		}
	}

	// Hooks run in reverse: stop accepting requests, stop watching the
	// config and certificate files, then save the draft.
	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout)
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("saving draft")
		return rt.Close(ctx)
	})
	if keypair != nil {
		sh.OnShutdown(func(context.Context) error { return keypair.Stop() })
	}

	if path := ParseGlobalFlags(c).Config; path != "" {
		watcher, err := watchConfig(ParseGlobalFlags(c), path, log)
		if err != nil {
			log.Warn("config reload disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error { return watcher.Stop() })
		}
	}

	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	var serveErr error
	served := make(chan struct{})
	go func() {
		defer close(served)
		log.Info("HTTP server listening", "addr", addr, "tls", keypair != nil,
			"version", buildinfo.Version, "assistant", rt.Assist.Ready(), "backend", cfg.Storage.Backend)
		var err error
		if keypair != nil {
			err = srv.ListenAndServeTLS(keypair.ServerTLSConfig())
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr = err
			cancel()
		}
	}()

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	<-served
	if serveErr != nil {
		return fmt.Errorf("serve %s: %w", addr, serveErr)
	}
	log.Info("server stopped")
	return nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings take effect on restart.
func watchConfig(flags *GlobalFlags, path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, errors.Join(err, watcher.Stop())
	}
	watcher.OnChange(func(string) {
		cfg, err := loadConfig(flags)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if !flags.Verbose {
			logger.SetLevel(cfg.Log.Level)
		}
		log.Info("config reloaded", "log_level", logger.GetLevel())
	})
	watcher.StartAsync()
	return watcher, nil
}
