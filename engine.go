package resume2pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// DefaultSettleTimeout bounds the wait for a loaded page to go network-idle.
const DefaultSettleTimeout = 30 * time.Second

// livenessTimeout bounds the browser version probe.
const livenessTimeout = 2 * time.Second

// browser is the part of a headless browser the engine drives.
type browser interface {
	newPage(ctx context.Context) (page, error)
	// alive probes the browser; it must return within livenessTimeout.
	alive(ctx context.Context) bool
	// close disconnects and kills the browser process tree.
	close() error
}

// page is one browser tab.
type page interface {
	// load sets the document content and waits until the network is idle.
	// It returns when ctx is done.
	load(ctx context.Context, markup string) error
	pdf(ctx context.Context, opts *proto.PagePrintToPDF) ([]byte, error)
	close() error
}

// launchConfig carries the options for launching a browser.
type launchConfig struct {
	BrowserBin string
	Logger     zerolog.Logger
}

// launchFunc starts a browser and connects to it.
type launchFunc func(ctx context.Context, cfg launchConfig) (browser, error)

// Engine owns one shared headless browser. The browser is launched lazily on
// first use, relaunched when found dead, and reused by concurrent renders,
// each in its own page. Create one Engine per process and pass it to whatever
// needs to render.
type Engine struct {
	mu       sync.Mutex
	browser  browser
	launches int

	launch        launchFunc
	launchCfg     launchConfig
	settleTimeout time.Duration
	pages         *pagePool
	logger        zerolog.Logger
	recorder      metrics.Recorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBrowserBin uses the given Chrome or Chromium binary instead of the
// one found on PATH or downloaded by rod.
func WithBrowserBin(path string) EngineOption {
	return func(e *Engine) {
		e.launchCfg.BrowserBin = path
	}
}

// WithSettleTimeout bounds the network-idle wait of each render.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithSettleTimeout(d time.Duration) EngineOption {
	if d <= 0 {
		panic("resume2pdf: WithSettleTimeout duration must be positive")
	}
	return func(e *Engine) {
		e.settleTimeout = d
	}
}

// WithWorkers caps the number of pages rendering at once. Zero or less
// selects ResolvePoolSize(0).
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.pages = newPagePool(ResolvePoolSize(n))
	}
}

// WithEngineLogger sets the logger for lifecycle events.
func WithEngineLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
		e.launchCfg.Logger = l
	}
}

// WithEngineRecorder sets the metrics recorder.
func WithEngineRecorder(r metrics.Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// withLauncher replaces the browser launcher; tests use it to inject fakes.
func withLauncher(fn launchFunc) EngineOption {
	return func(e *Engine) {
		e.launch = fn
	}
}

// NewEngine creates an Engine. No browser is started until the first call to
// EnsureStarted or Render.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		launch:        launchRod,
		settleTimeout: DefaultSettleTimeout,
		logger:        zerolog.Nop(),
		recorder:      metrics.NoopRecorder{},
	}
	e.launchCfg.Logger = e.logger

	for _, opt := range opts {
		opt(e)
	}

	if e.pages == nil {
		e.pages = newPagePool(ResolvePoolSize(0))
	}
	return e
}

// EnsureStarted makes sure a live browser is connected. Concurrent callers
// share a single launch. An existing browser that fails the liveness probe is
// torn down and replaced.
func (e *Engine) EnsureStarted(ctx context.Context) error {
	_, err := e.acquireBrowser(ctx)
	return err
}

// acquireBrowser probes the current handle without holding mu, so renders on
// a started engine never wait on each other's probes. Only launches are
// serialised.
func (e *Engine) acquireBrowser(ctx context.Context) (browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	b := e.browser
	e.mu.Unlock()

	if b != nil {
		if b.alive(ctx) {
			return b, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.invalidate(b)
	}
	return e.launchOnce(ctx)
}

// launchOnce starts a browser unless a concurrent caller already did.
func (e *Engine) launchOnce(ctx context.Context) (browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}

	start := time.Now()
	b, err := e.launch(ctx, e.launchCfg)
	if err != nil {
		e.logger.Error().Err(err).Msg("browser launch failed")
		return nil, fmt.Errorf("%w: %w", ErrEngineStart, err)
	}

	e.browser = b
	e.launches++
	e.recorder.IncEngineLaunch()
	e.logger.Info().
		Int("launch", e.launches).
		Dur("duration", time.Since(start)).
		Msg("browser started")
	return b, nil
}

// Render prints markup to PDF in a fresh page of the shared browser. The page
// is closed on every path. Failures are render errors (see IsRenderError),
// except launch failures which are engine errors.
func (e *Engine) Render(ctx context.Context, markup string, opts *RenderOptions) ([]byte, error) {
	b, err := e.acquireBrowser(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.pages.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for a page slot: %w", ErrPageCreate, err)
	}
	e.recorder.SetPagesInUse(e.pages.InUse())
	defer func() {
		e.pages.Release()
		e.recorder.SetPagesInUse(e.pages.InUse())
	}()

	pg, err := b.newPage(ctx)
	if err != nil {
		if !b.alive(ctx) {
			e.invalidate(b)
		}
		return nil, fmt.Errorf("%w: %w", ErrPageCreate, err)
	}
	defer func() {
		if cerr := pg.close(); cerr != nil {
			e.logger.Debug().Err(cerr).Msg("closing page")
		}
	}()

	settleCtx, cancel := context.WithTimeout(ctx, e.settleTimeout)
	defer cancel()
	if err := pg.load(settleCtx, markup); err != nil {
		if errors.Is(settleCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: settle timeout %s exceeded: %w", ErrPageLoad, e.settleTimeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: %w", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageLoad, err)
	}

	data, err := pg.pdf(ctx, buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	return data, nil
}

// invalidate drops b if it is still the current browser so the next call
// relaunches.
func (e *Engine) invalidate(b browser) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != b {
		return
	}
	e.logger.Warn().Msg("browser is dead, dropping handle")
	e.teardownLocked()
}

// teardownLocked closes the current browser, logging failures. Callers hold mu.
func (e *Engine) teardownLocked() {
	if err := e.browser.close(); err != nil {
		e.logger.Debug().Err(err).Msg("closing dead browser")
	}
	e.browser = nil
}

// Shutdown closes the browser and kills its process tree. It is safe to call
// more than once; a later Render starts a new browser.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}

	err := e.browser.close()
	e.browser = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngineShutdown, err)
	}
	e.logger.Info().Msg("browser stopped")
	return nil
}

// Started reports whether a browser handle is currently held.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.browser != nil
}

// Launches returns how many browsers this Engine has started.
func (e *Engine) Launches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launches
}

// Workers returns the maximum number of concurrent pages.
func (e *Engine) Workers() int {
	return e.pages.Size()
}
