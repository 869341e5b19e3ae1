package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alnah/go-resume2pdf/internal/dateutil"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddressLength     = 255
	MaxPathLength        = 4096
	MaxOriginLength      = 2048
	MaxOrigins           = 32
	MaxTextLength        = 500
	MaxNameLength        = 100
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxDurationLength    = 20
)

// Defaults applied by DefaultConfig.
const (
	DefaultAddress       = ":3001"
	DefaultEnvironment   = "development"
	DefaultOrigin        = "http://localhost:3000"
	DefaultSettleTimeout = 30 * time.Second
	DefaultReadTimeout   = 30 * time.Second
	DefaultWriteTimeout  = 60 * time.Second
	DefaultMaxBodyBytes  = 10 << 20
	DefaultMetricsPath   = "/metrics"
	DefaultStyle         = "resume"
)

// Config holds all configuration for the résumé service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Page    PageConfig    `yaml:"page"`
	Footer  FooterConfig  `yaml:"footer"`
	Assets  AssetsConfig  `yaml:"assets"`
	Date    DateConfig    `yaml:"date"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	Environment    string   `yaml:"environment"`    // "development", "production"
	ExposeErrors   bool     `yaml:"exposeErrors"`   // include causes in 500 payloads
	AllowedOrigins []string `yaml:"allowedOrigins"` // CORS allow-list
	ReadTimeout    string   `yaml:"readTimeout"`    // Go duration, e.g. "30s"
	WriteTimeout   string   `yaml:"writeTimeout"`
	MaxBodyBytes   int      `yaml:"maxBodyBytes"`
}

// EngineConfig defines the headless browser.
type EngineConfig struct {
	BrowserBin    string `yaml:"browserBin"`    // empty = auto-detect / ROD_BROWSER_BIN
	SettleTimeout string `yaml:"settleTimeout"` // Go duration (default "30s")
	Workers       int    `yaml:"workers"`       // concurrent pages, 0 = auto
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// FooterConfig defines page footer options.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // "left", "center", "right" (default: "right")
	ShowPageNumber bool   `yaml:"showPageNumber"`
	Text           string `yaml:"text"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Style    string `yaml:"style"`    // style name or path (default: "resume")
}

// DateConfig defines how "YYYY-MM" periods are displayed.
type DateConfig struct {
	Format string `yaml:"format"` // preset ("short", "long", ...) or tokens
}

// LogConfig defines structured logging options.
type LogConfig struct {
	Level        string `yaml:"level"`  // debug, info, warn, error
	Format       string `yaml:"format"` // "json" or "pretty"
	TimeFormat   string `yaml:"timeFormat"`
	ReportCaller bool   `yaml:"reportCaller"`
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate checks field lengths and enumerations.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.address", c.Server.Address, MaxAddressLength); err != nil {
		return err
	}
	if err := validateFieldLength("server.environment", c.Server.Environment, MaxNameLength); err != nil {
		return err
	}
	if len(c.Server.AllowedOrigins) > MaxOrigins {
		return fmt.Errorf("%w: server.allowedOrigins (%d entries, max %d)", ErrFieldTooLong, len(c.Server.AllowedOrigins), MaxOrigins)
	}
	for i, origin := range c.Server.AllowedOrigins {
		if err := validateFieldLength(fmt.Sprintf("server.allowedOrigins[%d]", i), origin, MaxOriginLength); err != nil {
			return err
		}
	}
	if err := validateDuration("server.readTimeout", c.Server.ReadTimeout); err != nil {
		return err
	}
	if err := validateDuration("server.writeTimeout", c.Server.WriteTimeout); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must be >= 0, got %d", ErrInvalidValue, c.Server.MaxBodyBytes)
	}

	if err := validateFieldLength("engine.browserBin", c.Engine.BrowserBin, MaxPathLength); err != nil {
		return err
	}
	if err := validateDuration("engine.settleTimeout", c.Engine.SettleTimeout); err != nil {
		return err
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must be >= 0, got %d", ErrInvalidValue, c.Engine.Workers)
	}

	if err := validateFieldLength("page.size", c.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.orientation", c.Page.Orientation, MaxOrientationLength); err != nil {
		return err
	}

	if err := validateFieldLength("footer.text", c.Footer.Text, MaxTextLength); err != nil {
		return err
	}
	if c.Footer.Position != "" {
		switch strings.ToLower(c.Footer.Position) {
		case "left", "center", "right":
			// valid
		default:
			return fmt.Errorf("%w: footer.position %q (must be left, center, or right)", ErrInvalidValue, c.Footer.Position)
		}
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.style", c.Assets.Style, MaxPathLength); err != nil {
		return err
	}

	if _, err := dateutil.ResolvePeriodFormat(c.Date.Format); err != nil {
		return fmt.Errorf("date.format: %w", err)
	}

	if c.Log.Format != "" {
		switch strings.ToLower(c.Log.Format) {
		case "json", "pretty":
			// valid
		default:
			return fmt.Errorf("%w: log.format %q (must be json or pretty)", ErrInvalidValue, c.Log.Format)
		}
	}
	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			// valid
		default:
			return fmt.Errorf("%w: log.level %q", ErrInvalidValue, c.Log.Level)
		}
	}

	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics.path must start with '/', got %q", ErrInvalidValue, c.Metrics.Path)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if n := utf8.RuneCountInString(value); n > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, n, maxLength)
	}
	return nil
}

func validateDuration(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxDurationLength); err != nil {
		return err
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, fieldName, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// Duration parses a validated duration field, falling back to def when the
// field is empty or unparseable.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// DefaultConfig returns the development posture: embedded assets, letter
// pages, localhost CORS, causes exposed in error payloads.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        DefaultAddress,
			Environment:    DefaultEnvironment,
			ExposeErrors:   true,
			AllowedOrigins: []string{DefaultOrigin},
			ReadTimeout:    DefaultReadTimeout.String(),
			WriteTimeout:   DefaultWriteTimeout.String(),
			MaxBodyBytes:   DefaultMaxBodyBytes,
		},
		Engine: EngineConfig{
			SettleTimeout: DefaultSettleTimeout.String(),
		},
		Page: PageConfig{
			Size:        "letter",
			Orientation: "portrait",
			Margin:      0.5,
		},
		Footer:  FooterConfig{Enabled: false},
		Assets:  AssetsConfig{Style: DefaultStyle},
		Date:    DateConfig{Format: dateutil.DefaultPeriodFormat},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Path: DefaultMetricsPath},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.ReadFileStrict(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-resume2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-resume2pdf", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
