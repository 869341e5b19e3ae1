package main

import (
	"context"
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/logger"
	"github.com/alnah/go-resume2pdf/internal/metrics"
	"github.com/alnah/go-resume2pdf/internal/server"
)

// runServe starts the HTTP API and blocks until ctx is cancelled. The HTTP
// server drains first, then the browser is stopped.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseServeFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, rest)
	}

	cfg, err := resolveConfig(f.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return err
	}
	if f.changed("address") {
		cfg.Server.Address = f.address
	}
	if f.changed("environment") {
		cfg.Server.Environment = f.environment
	}
	mergeSharedFlags(cfg, f.changed, f.engine, f.page, f.footer, f.style)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Init(loggerConfig(cfg, f.common), env.Stderr)

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if cfg.Metrics.Enabled {
		reg = prom.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec = metrics.NewPrometheusRecorder(reg)
	}

	engine := buildEngine(cfg, log, rec)
	gen, err := buildGenerator(engine, cfg, log, rec)
	if err != nil {
		return err
	}

	srv := server.New(serverConfig(cfg), server.Deps{
		Generator: gen,
		Engine:    engine,
		Logger:    log,
		Recorder:  rec,
		Registry:  reg,
	})

	log.Info().
		Str("version", Version).
		Int("workers", engine.Workers()).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("starting resume2pdf")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown requested")
		return nil
	})
	err = g.Wait()

	if serr := engine.Shutdown(); serr != nil {
		log.Error().Err(serr).Msg("stopping browser")
		err = errors.Join(err, serr)
	}
	log.Info().Msg("stopped")
	return err
}

func serverConfig(cfg *config.Config) server.Config {
	sc := server.Config{
		Address:        cfg.Server.Address,
		Environment:    cfg.Server.Environment,
		ExposeErrors:   cfg.Server.ExposeErrors,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    config.Duration(cfg.Server.ReadTimeout, config.DefaultReadTimeout),
		WriteTimeout:   config.Duration(cfg.Server.WriteTimeout, config.DefaultWriteTimeout),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Version:        Version,
	}
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	}
	return sc
}
