package main

import (
	"github.com/rs/zerolog"

	"github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/logger"
	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// resolveConfig loads the config file named by the flag or
// RESUME2PDF_CONFIG, falling back to defaults, then applies env overrides.
func resolveConfig(configFlag string, env *envConfig) (*config.Config, error) {
	name := configFlag
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

func loggerConfig(cfg *config.Config, common commonFlags) logger.Config {
	lc := logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		TimeFormat:   cfg.Log.TimeFormat,
		ReportCaller: cfg.Log.ReportCaller,
	}
	switch {
	case common.verbose:
		lc.Level = "debug"
	case common.quiet:
		lc.Level = "error"
	}
	return lc
}

func pageSettings(cfg *config.Config) *resume2pdf.PageSettings {
	return &resume2pdf.PageSettings{
		Size:        cfg.Page.Size,
		Orientation: cfg.Page.Orientation,
		Margin:      cfg.Page.Margin,
	}
}

// footerSettings returns nil when the footer is disabled.
func footerSettings(cfg *config.Config) *resume2pdf.Footer {
	if !cfg.Footer.Enabled {
		return nil
	}
	return &resume2pdf.Footer{
		Position:       cfg.Footer.Position,
		ShowPageNumber: cfg.Footer.ShowPageNumber,
		Text:           cfg.Footer.Text,
	}
}

func buildEngine(cfg *config.Config, log zerolog.Logger, rec metrics.Recorder) *resume2pdf.Engine {
	return resume2pdf.NewEngine(
		resume2pdf.WithBrowserBin(cfg.Engine.BrowserBin),
		resume2pdf.WithSettleTimeout(config.Duration(cfg.Engine.SettleTimeout, config.DefaultSettleTimeout)),
		resume2pdf.WithWorkers(cfg.Engine.Workers),
		resume2pdf.WithEngineLogger(log),
		resume2pdf.WithEngineRecorder(rec),
	)
}

func buildGenerator(engine *resume2pdf.Engine, cfg *config.Config, log zerolog.Logger, rec metrics.Recorder) (*resume2pdf.Generator, error) {
	return resume2pdf.NewGenerator(engine,
		resume2pdf.WithStyle(cfg.Assets.Style),
		resume2pdf.WithAssetPath(cfg.Assets.BasePath),
		resume2pdf.WithDateFormat(cfg.Date.Format),
		resume2pdf.WithPage(pageSettings(cfg)),
		resume2pdf.WithFooter(footerSettings(cfg)),
		resume2pdf.WithLogger(log),
		resume2pdf.WithRecorder(rec),
	)
}
