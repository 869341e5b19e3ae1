package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/config"
)

// envPrefix scopes the variables this binary reads.
const envPrefix = "RESUME2PDF_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // RESUME2PDF_CONFIG

	// Server
	Address        string   // RESUME2PDF_ADDRESS, or ":"+PORT
	Environment    string   // RESUME2PDF_ENVIRONMENT
	AllowedOrigins []string // RESUME2PDF_ALLOWED_ORIGINS (comma separated)
	ExposeErrors   *bool    // RESUME2PDF_EXPOSE_ERRORS

	// Engine
	BrowserBin    string // RESUME2PDF_BROWSER_BIN
	SettleTimeout string // RESUME2PDF_SETTLE_TIMEOUT
	Workers       int    // RESUME2PDF_WORKERS

	// Rendering
	Style      string // RESUME2PDF_STYLE
	PageSize   string // RESUME2PDF_PAGE_SIZE
	DateFormat string // RESUME2PDF_DATE_FORMAT

	// Observability
	LogLevel       string // RESUME2PDF_LOG_LEVEL
	LogFormat      string // RESUME2PDF_LOG_FORMAT
	MetricsEnabled *bool  // RESUME2PDF_METRICS_ENABLED
}

// knownEnvVars lists valid RESUME2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"RESUME2PDF_CONFIG":          true,
	"RESUME2PDF_ADDRESS":         true,
	"RESUME2PDF_ENVIRONMENT":     true,
	"RESUME2PDF_ALLOWED_ORIGINS": true,
	"RESUME2PDF_EXPOSE_ERRORS":   true,
	"RESUME2PDF_BROWSER_BIN":     true,
	"RESUME2PDF_SETTLE_TIMEOUT":  true,
	"RESUME2PDF_WORKERS":         true,
	"RESUME2PDF_STYLE":           true,
	"RESUME2PDF_PAGE_SIZE":       true,
	"RESUME2PDF_DATE_FORMAT":     true,
	"RESUME2PDF_LOG_LEVEL":       true,
	"RESUME2PDF_LOG_FORMAT":      true,
	"RESUME2PDF_METRICS_ENABLED": true,
	"RESUME2PDF_CONTAINER":       true, // read by doctor
}

// loadEnvConfig reads configuration through getenv.
// Malformed numbers and booleans are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv("RESUME2PDF_CONFIG"),
		Address:       getenv("RESUME2PDF_ADDRESS"),
		Environment:   getenv("RESUME2PDF_ENVIRONMENT"),
		BrowserBin:    getenv("RESUME2PDF_BROWSER_BIN"),
		SettleTimeout: getenv("RESUME2PDF_SETTLE_TIMEOUT"),
		Style:         getenv("RESUME2PDF_STYLE"),
		PageSize:      getenv("RESUME2PDF_PAGE_SIZE"),
		DateFormat:    getenv("RESUME2PDF_DATE_FORMAT"),
		LogLevel:      getenv("RESUME2PDF_LOG_LEVEL"),
		LogFormat:     getenv("RESUME2PDF_LOG_FORMAT"),
	}

	// PORT is the common platform convention.
	if cfg.Address == "" {
		if port := getenv("PORT"); port != "" {
			if _, err := strconv.Atoi(port); err == nil {
				cfg.Address = ":" + port
			}
		}
	}

	if origins := getenv("RESUME2PDF_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if workers := getenv("RESUME2PDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	cfg.ExposeErrors = parseBoolEnv(getenv("RESUME2PDF_EXPOSE_ERRORS"))
	cfg.MetricsEnabled = parseBoolEnv(getenv("RESUME2PDF_METRICS_ENABLED"))

	return cfg
}

func parseBoolEnv(v string) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// warnUnknownEnvVars logs warnings for unrecognized RESUME2PDF_* variables.
// Helps catch typos like RESUME2PDF_WORKER instead of RESUME2PDF_WORKERS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config values with set environment variables.
// CLI flags are applied afterwards.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Address != "" {
		cfg.Server.Address = env.Address
	}
	if env.Environment != "" {
		cfg.Server.Environment = env.Environment
		// Production hides failure causes unless explicitly re-enabled below.
		cfg.Server.ExposeErrors = env.Environment != "production"
	}
	if len(env.AllowedOrigins) > 0 {
		cfg.Server.AllowedOrigins = env.AllowedOrigins
	}
	if env.ExposeErrors != nil {
		cfg.Server.ExposeErrors = *env.ExposeErrors
	}

	if env.BrowserBin != "" {
		cfg.Engine.BrowserBin = env.BrowserBin
	}
	if env.SettleTimeout != "" {
		cfg.Engine.SettleTimeout = env.SettleTimeout
	}
	if env.Workers > 0 {
		cfg.Engine.Workers = env.Workers
	}

	if env.Style != "" {
		cfg.Assets.Style = env.Style
	}
	if env.PageSize != "" {
		cfg.Page.Size = env.PageSize
	}
	if env.DateFormat != "" {
		cfg.Date.Format = env.DateFormat
	}

	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.MetricsEnabled != nil {
		cfg.Metrics.Enabled = *env.MetricsEnabled
	}
}
