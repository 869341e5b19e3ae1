package resume2pdf

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-resume2pdf/internal/process"
)

// networkIdleWindow is how long the page must stay without requests before
// it counts as settled.
const networkIdleWindow = 500 * time.Millisecond

// Paper dimensions in inches (portrait).
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// marginBottomWithFooter leaves room for the native footer.
const marginBottomWithFooter = 0.75

// Compile-time interface checks
var (
	_ browser    = (*rodBrowser)(nil)
	_ page       = (*rodPage)(nil)
	_ launchFunc = launchRod
)

// launchRod starts headless Chromium without sandbox and GPU and connects to
// it. Rod downloads Chromium on first run when no binary is found.
func launchRod(ctx context.Context, cfg launchConfig) (browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("no-zygote")

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := resolveBrowserBin(cfg.BrowserBin); bin != "" {
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, err
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		pid := l.PID()
		l.Kill()
		_ = process.KillProcessGroup(pid)
		return nil, err
	}

	cfg.Logger.Debug().Int("pid", l.PID()).Str("control_url", u).Msg("browser connected")
	return &rodBrowser{b: b, l: l}, nil
}

// resolveBrowserBin picks the configured binary, then ROD_BROWSER_BIN, then a
// system install.
func resolveBrowserBin(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		return bin
	}
	if bin, ok := launcher.LookPath(); ok {
		return bin
	}
	return ""
}

// rodBrowser adapts a go-rod browser and its launcher.
type rodBrowser struct {
	b *rod.Browser
	l *launcher.Launcher
}

func (r *rodBrowser) newPage(ctx context.Context) (page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r.b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return &rodPage{p: p}, nil
}

// alive asks the browser for its version. The probe ignores cancellation of
// ctx so an aborted request cannot mark a healthy browser dead.
func (r *rodBrowser) alive(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), livenessTimeout)
	defer cancel()
	_, err := proto.BrowserGetVersion{}.Call(r.b.Context(probeCtx))
	return err == nil
}

func (r *rodBrowser) close() error {
	err := r.b.Close()
	pid := r.l.PID()
	r.l.Kill()
	if kerr := process.KillProcessGroup(pid); kerr != nil && !errors.Is(kerr, process.ErrInvalidPID) {
		err = errors.Join(err, kerr)
	}
	return err
}

// settleResourceTypes is passed as WaitRequestIdle's excludeTypes. It must be
// non-nil: nil makes rod skip images, fonts and media, and a page could print
// before a web font arrives.
var settleResourceTypes = []proto.NetworkResourceType{}

// rodPage adapts a go-rod page.
type rodPage struct {
	p *rod.Page
}

func (r *rodPage) load(ctx context.Context, markup string) error {
	p := r.p.Context(ctx)

	waitIdle := p.WaitRequestIdle(networkIdleWindow, nil, nil, settleResourceTypes)
	if err := p.SetDocumentContent(markup); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	waitIdle()

	return ctx.Err()
}

func (r *rodPage) pdf(ctx context.Context, opts *proto.PagePrintToPDF) ([]byte, error) {
	reader, err := r.p.Context(ctx).PDF(opts)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return data, nil
}

func (r *rodPage) close() error {
	return r.p.Close()
}

// buildPDFOptions constructs proto.PagePrintToPDF for the page settings with
// an optional footer. The CSS @page rule wins when both disagree.
func buildPDFOptions(opts *RenderOptions) *proto.PagePrintToPDF {
	pageSettings := DefaultPageSettings()
	var footer *Footer
	if opts != nil {
		if opts.Page != nil {
			pageSettings = opts.Page
		}
		footer = opts.Footer
	}

	dims, ok := paperSizes[strings.ToLower(pageSettings.Size)]
	if !ok {
		dims = paperSizes[PageSizeLetter]
	}
	width, height := dims[0], dims[1]
	if strings.EqualFold(pageSettings.Orientation, OrientationLandscape) {
		width, height = height, width
	}

	margin := pageSettings.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	marginBottom := margin
	if footer != nil && marginBottom < marginBottomWithFooter {
		marginBottom = marginBottomWithFooter
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(width),
		PaperHeight:       floatPtr(height),
		MarginTop:         floatPtr(margin),
		MarginBottom:      floatPtr(marginBottom),
		MarginLeft:        floatPtr(margin),
		MarginRight:       floatPtr(margin),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}

	if footer != nil {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = "<span></span>" // Empty header
		pdfOpts.FooterTemplate = buildFooterTemplate(footer)
	}

	return pdfOpts
}

// buildFooterTemplate generates an HTML template for Chrome's native footer.
// Page numbers use Chrome's pageNumber and totalPages classes.
func buildFooterTemplate(f *Footer) string {
	if f == nil {
		return "<span></span>"
	}

	var parts []string
	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	if f.Text != "" {
		parts = append(parts, html.EscapeString(f.Text))
	}

	if len(parts) == 0 {
		return "<span></span>"
	}

	textAlign := "right"
	switch strings.ToLower(f.Position) {
	case "left":
		textAlign = "left"
	case "center":
		textAlign = "center"
	}

	return fmt.Sprintf(`<div style="font-size: 10px; font-family: %s; color: #aaa; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`,
		defaultFontFamily, textAlign, strings.Join(parts, " - "))
}

func floatPtr(v float64) *float64 {
	return &v
}
