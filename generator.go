package resume2pdf

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// ContentTypePDF is the media type of generated documents.
const ContentTypePDF = "application/pdf"

// filenameSuffix completes the suggested download name.
const filenameSuffix = "_Resume.pdf"

// renderer prints markup to PDF. *Engine implements it.
type renderer interface {
	Render(ctx context.Context, markup string, opts *RenderOptions) ([]byte, error)
}

var _ renderer = (*Engine)(nil)

// Result is a generated résumé.
type Result struct {
	PDF         []byte
	HTML        []byte // composed markup, kept for debugging
	Filename    string
	ContentType string
	Size        int
}

// Generator runs validate, compose and render for one document at a time.
// It is safe for concurrent use; all renders share the Engine's browser.
type Generator struct {
	engine   renderer
	composer *Composer
	cfg      generatorConfig
	logger   zerolog.Logger
	recorder metrics.Recorder
}

type generatorConfig struct {
	composer ComposerConfig
	footer   *Footer
}

// Option configures a Generator.
type Option func(*Generator)

// WithStyle selects a stylesheet by name or file path.
func WithStyle(style string) Option {
	return func(g *Generator) {
		g.cfg.composer.Style = style
	}
}

// WithAssetPath sets a directory whose styles and templates override the
// embedded ones.
func WithAssetPath(path string) Option {
	return func(g *Generator) {
		g.cfg.composer.AssetPath = path
	}
}

// WithDateFormat sets the period format, a preset name or a token format
// such as "MMM YYYY".
func WithDateFormat(format string) Option {
	return func(g *Generator) {
		g.cfg.composer.DateFormat = format
	}
}

// WithPage sets the page size, orientation and margin.
func WithPage(p *PageSettings) Option {
	return func(g *Generator) {
		g.cfg.composer.Page = p
	}
}

// WithFooter prints a footer on every page.
func WithFooter(f *Footer) Option {
	return func(g *Generator) {
		g.cfg.footer = f
	}
}

// WithLogger sets the logger for generation events.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// NewGenerator creates a Generator rendering through engine.
// Returns error if assets cannot be loaded or settings are invalid.
func NewGenerator(engine *Engine, opts ...Option) (*Generator, error) {
	if engine == nil {
		return nil, errors.New("resume2pdf: nil engine")
	}
	return newGenerator(engine, opts...)
}

func newGenerator(engine renderer, opts ...Option) (*Generator, error) {
	g := &Generator{
		engine:   engine,
		logger:   zerolog.Nop(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.cfg.footer.Validate(); err != nil {
		return nil, err
	}

	composer, err := NewComposer(g.cfg.composer)
	if err != nil {
		return nil, err
	}
	g.composer = composer
	return g, nil
}

// Generate validates doc, composes its markup and renders it to PDF.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (g *Generator) Generate(ctx context.Context, doc *Document) (result *Result, err error) {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := g.logger.With().Str("request_id", requestID).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			result = nil
		}
		g.observe(log, start, err)
	}()

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	composeStart := time.Now()
	markup, err := g.composer.Compose(ctx, doc)
	if err != nil {
		return nil, err
	}
	g.recorder.ObserveStageDuration(metrics.StageCompose, time.Since(composeStart))

	renderStart := time.Now()
	data, err := g.engine.Render(ctx, markup, &RenderOptions{
		Page:   g.cfg.composer.Page,
		Footer: g.cfg.footer,
	})
	if err != nil {
		return nil, err
	}
	g.recorder.ObserveStageDuration(metrics.StageRender, time.Since(renderStart))

	return &Result{
		PDF:         data,
		HTML:        []byte(markup),
		Filename:    SuggestedFilename(doc.PersonalInfo.FullName),
		ContentType: ContentTypePDF,
		Size:        len(data),
	}, nil
}

// observe records the outcome of one generation.
func (g *Generator) observe(log zerolog.Logger, start time.Time, err error) {
	elapsed := time.Since(start)
	g.recorder.ObserveGenerateDuration(elapsed)

	outcome := outcomeOf(err)
	g.recorder.IncGenerateOutcome(outcome)

	switch outcome {
	case metrics.OutcomeSuccess:
		log.Info().Dur("duration", elapsed).Msg("résumé generated")
	case metrics.OutcomeInvalid:
		log.Info().Err(err).Msg("résumé rejected")
	default:
		log.Error().Err(err).Str("outcome", string(outcome)).Dur("duration", elapsed).Msg("résumé generation failed")
	}
}

func outcomeOf(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case IsValidationError(err):
		return metrics.OutcomeInvalid
	case IsEngineError(err):
		return metrics.OutcomeEngineError
	case IsRenderError(err):
		return metrics.OutcomeRenderError
	default:
		return metrics.OutcomeFailed
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SuggestedFilename replaces every whitespace run in fullName with "_" and
// appends "_Resume.pdf" ("Jane  Q Doe" gives "Jane_Q_Doe_Resume.pdf").
func SuggestedFilename(fullName string) string {
	return whitespaceRun.ReplaceAllString(fullName, "_") + filenameSuffix
}

type requestIDKey struct{}

// ContextWithRequestID returns a context carrying id, which Generate logs
// instead of generating its own.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(id))
}

// RequestIDFromContext returns the id set by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
