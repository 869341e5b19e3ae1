// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Library code receives a copy through
// options instead of reading this variable.
var Logger = log.Logger

// Config defines the behaviour of the logging system.
type Config struct {
	Level        string // debug, info, warn, error, ...
	Format       string // "json" (machine readable) or "pretty" (console)
	TimeFormat   string // defaults to RFC3339
	ReportCaller bool   // add file:line to each event
}

// New builds a logger writing to w without touching global state.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	output := w
	if strings.EqualFold(cfg.Format, "pretty") {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Init configures the global logger from cfg and returns it. Commands pass
// stderr so stdout stays free for command output.
func Init(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	Logger = New(cfg, w)
	log.Logger = Logger
	return Logger
}
