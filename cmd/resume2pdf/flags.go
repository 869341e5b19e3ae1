package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-resume2pdf/internal/config"
)

var (
	// ErrUsage marks invalid command lines.
	ErrUsage = errors.New("invalid usage")

	errHelpRequested = errors.New("help requested")
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// engineFlags holds headless browser flags.
type engineFlags struct {
	browserBin    string
	settleTimeout string
	workers       int
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// footerFlags holds footer-related flags.
type footerFlags struct {
	position   string
	text       string
	pageNumber bool
	disabled   bool
}

// styleFlags holds asset and formatting flags.
type styleFlags struct {
	style      string
	assetPath  string
	dateFormat string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common      commonFlags
	address     string
	environment string
	engine      engineFlags
	page        pageFlags
	footer      footerFlags
	style       styleFlags

	changed func(name string) bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common commonFlags
	output string
	html   bool
	engine engineFlags
	page   pageFlags
	footer footerFlags
	style  styleFlags

	changed func(name string) bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
}

func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium executable")
	fs.StringVar(&f.settleTimeout, "settle-timeout", "", "page settle timeout (e.g., 30s)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent pages (0 = auto)")
}

func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
}

func addFooterFlags(fs *flag.FlagSet, f *footerFlags) {
	fs.StringVar(&f.position, "footer-position", "", "footer position: left, center, right")
	fs.StringVar(&f.text, "footer-text", "", "custom footer text")
	fs.BoolVar(&f.pageNumber, "footer-page-number", false, "show page numbers in footer")
	fs.BoolVar(&f.disabled, "no-footer", false, "disable footer")
}

func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.dateFormat, "date-format", "", "period format preset or tokens (e.g., \"MMM YYYY\")")
}

func newFlagSet(name string, usage func(io.Writer), w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stdout io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, stdout)

	fs.StringVarP(&f.address, "address", "a", "", "listen address (default \":3001\")")
	fs.StringVar(&f.environment, "environment", "", "development or production")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	addPageFlags(fs, &f.page)
	addFooterFlags(fs, &f.footer)
	addStyleFlags(fs, &f.style)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	f.changed = fs.Changed
	return f, fs.Args(), nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stdout io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", printRenderUsage, stdout)

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default: <Name>_Resume.pdf)")
	fs.BoolVar(&f.html, "html", false, "also write the composed HTML next to the PDF")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	addPageFlags(fs, &f.page)
	addFooterFlags(fs, &f.footer)
	addStyleFlags(fs, &f.style)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	f.changed = fs.Changed
	return f, fs.Args(), nil
}

func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		fs.Usage()
		return errHelpRequested
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}

// mergeSharedFlags applies explicitly set flags over cfg.
// Resolution order: flags > env > config file > defaults.
func mergeSharedFlags(cfg *config.Config, changed func(string) bool, e engineFlags, p pageFlags, ft footerFlags, st styleFlags) {
	if changed("browser-bin") {
		cfg.Engine.BrowserBin = e.browserBin
	}
	if changed("settle-timeout") {
		cfg.Engine.SettleTimeout = e.settleTimeout
	}
	if changed("workers") {
		cfg.Engine.Workers = e.workers
	}

	if changed("page-size") {
		cfg.Page.Size = p.size
	}
	if changed("orientation") {
		cfg.Page.Orientation = p.orientation
	}
	if changed("margin") {
		cfg.Page.Margin = p.margin
	}

	if changed("footer-position") {
		cfg.Footer.Position = ft.position
		cfg.Footer.Enabled = true
	}
	if changed("footer-text") {
		cfg.Footer.Text = ft.text
		cfg.Footer.Enabled = true
	}
	if changed("footer-page-number") {
		cfg.Footer.ShowPageNumber = ft.pageNumber
		cfg.Footer.Enabled = true
	}
	if ft.disabled {
		cfg.Footer.Enabled = false
	}

	if changed("style") {
		cfg.Assets.Style = st.style
	}
	if changed("asset-path") {
		cfg.Assets.BasePath = st.assetPath
	}
	if changed("date-format") {
		cfg.Date.Format = st.dateFormat
	}
}
