// Package server exposes résumé generation over HTTP using fasthttp.
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// Route paths.
const (
	RouteGenerate = "/api/generate-resume"
	RouteStatus   = "/api/status"
	RouteHealth   = "/health"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultMaxBodyBytes = 10 << 20
	serverName          = "resume2pdf"
)

// Generator produces a PDF for a document. *resume2pdf.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, doc *resume2pdf.Document) (*resume2pdf.Result, error)
}

// EngineStatus reports whether the shared browser is running.
type EngineStatus interface {
	Started() bool
}

// Config holds transport settings.
type Config struct {
	Address        string
	Environment    string
	ExposeErrors   bool // include failure causes in 500 responses
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int
	MetricsPath    string // empty disables the metrics endpoint
	Version        string
}

// Deps are the collaborators the server calls into.
type Deps struct {
	Generator Generator
	Engine    EngineStatus
	Logger    zerolog.Logger
	Recorder  metrics.Recorder
	Registry  *prom.Registry // served on MetricsPath when set
}

// Server routes requests to the résumé handlers.
type Server struct {
	cfg       Config
	r         *router.Router
	server    *fasthttp.Server
	generator Generator
	engine    EngineStatus
	logger    zerolog.Logger
	recorder  metrics.Recorder
	started   time.Time
}

// New wires routes and middleware. It does not listen.
func New(cfg Config, d Deps) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	recorder := d.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	rt := router.New()
	rt.SaveMatchedRoutePath = true

	s := &Server{
		cfg:       cfg,
		r:         rt,
		generator: d.Generator,
		engine:    d.Engine,
		logger:    d.Logger,
		recorder:  recorder,
		started:   time.Now(),
	}

	s.mountRoutes(d.Registry)

	s.server = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               serverName,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		MaxRequestBodySize: cfg.MaxBodyBytes,
		Logger:             fasthttpLogger{s.logger},
	}

	return s
}

func (s *Server) mountRoutes(reg *prom.Registry) {
	s.r.POST(RouteGenerate, s.generateResume)
	s.r.GET(RouteStatus, s.status)
	s.r.GET(RouteHealth, s.health)

	if s.cfg.MetricsPath != "" && reg != nil {
		s.r.GET(s.cfg.MetricsPath, fasthttpadaptor.NewFastHTTPHandler(metrics.HTTPHandler(reg)))
	}

	s.r.NotFound = s.notFound
	s.r.MethodNotAllowed = s.methodNotAllowed
	s.r.PanicHandler = s.panicHandler
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() fasthttp.RequestHandler {
	h := s.Recovery(s.Logging(s.SecurityHeaders(s.CORS(s.r.Handler))))
	return fasthttp.CompressHandler(h)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, waiting for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("address", ln.Addr().String()).Str("environment", s.cfg.Environment).Msg("HTTP server listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("HTTP server shutting down")
		return s.server.Shutdown()
	case err := <-serveErr:
		return err
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Address
	if addr == "" {
		addr = ":3001"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	err = s.Serve(ctx, ln)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// fasthttpLogger routes fasthttp's internal messages to zerolog.
type fasthttpLogger struct {
	l zerolog.Logger
}

func (f fasthttpLogger) Printf(format string, args ...any) {
	f.l.Warn().Msgf(format, args...)
}
