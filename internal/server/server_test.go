package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// fakeGenerator validates like the real generator and returns canned output.
type fakeGenerator struct {
	mu       sync.Mutex
	err      error
	panicMsg string
	delay    time.Duration
	gotDoc   *resume2pdf.Document
	gotReqID string
	ctxErr   error
}

func (g *fakeGenerator) Generate(ctx context.Context, doc *resume2pdf.Document) (*resume2pdf.Result, error) {
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.gotDoc = doc
	g.gotReqID = resume2pdf.RequestIDFromContext(ctx)
	g.ctxErr = ctx.Err()
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	pdf := []byte("%PDF-1.4 fake")
	return &resume2pdf.Result{
		PDF:         pdf,
		Filename:    resume2pdf.SuggestedFilename(doc.PersonalInfo.FullName),
		ContentType: resume2pdf.ContentTypePDF,
		Size:        len(pdf),
	}, nil
}

type fakeEngine struct{ started bool }

func (e fakeEngine) Started() bool { return e.started }

// httpRecorder counts observed HTTP requests by route.
type httpRecorder struct {
	metrics.NoopRecorder
	mu     sync.Mutex
	routes []string
}

func (r *httpRecorder) ObserveHTTPRequest(route string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func newTestServer(t *testing.T, cfg Config, gen Generator) *Server {
	t.Helper()
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}
	return New(cfg, Deps{
		Generator: gen,
		Engine:    fakeEngine{started: true},
		Logger:    zerolog.Nop(),
	})
}

// do runs one request through the full middleware chain.
func do(t *testing.T, s *Server, method, path string, body []byte, headers map[string]string) *fasthttp.Response {
	t.Helper()

	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.Handler()(&ctx)

	var resp fasthttp.Response
	ctx.Response.CopyTo(&resp)
	return &resp
}

func decodeError(t *testing.T, resp *fasthttp.Response) errorResponse {
	t.Helper()
	var got errorResponse
	if err := json.Unmarshal(resp.Body(), &got); err != nil {
		t.Fatalf("decode %q: %v", resp.Body(), err)
	}
	return got
}

const validBody = `{"personalInfo":{"fullName":"Jane Doe","email":"jane@x.com"}}`

// ---------------------------------------------------------------------------
// TestGenerateResume
// ---------------------------------------------------------------------------

func TestGenerateResume_Success(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	s := newTestServer(t, Config{}, gen)

	resp := do(t, s, fasthttp.MethodPost, RouteGenerate, []byte(validBody), map[string]string{headerRequestID: "req-42"})

	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode(), resp.Body())
	}
	if got := string(resp.Header.ContentType()); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := string(resp.Header.Peek(fasthttp.HeaderContentDisposition)); got != `attachment; filename="Jane_Doe_Resume.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if len(resp.Body()) != len("%PDF-1.4 fake") {
		t.Errorf("body length = %d", len(resp.Body()))
	}
	if !bytes.HasPrefix(resp.Body(), []byte("%PDF")) {
		t.Errorf("body = %q", resp.Body())
	}
	if gen.gotReqID != "req-42" {
		t.Errorf("generator saw request id %q, want req-42", gen.gotReqID)
	}
	if gen.ctxErr != nil {
		t.Errorf("generator context already done: %v", gen.ctxErr)
	}
	if gen.gotDoc.PersonalInfo.Email != "jane@x.com" {
		t.Errorf("decoded email = %q", gen.gotDoc.PersonalInfo.Email)
	}
}

func TestGenerateResume_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		genErr      error
		expose      bool
		wantStatus  int
		wantMessage string
		wantError   string // substring; empty means exact msgGenericCause check skipped
	}{
		{
			name:        "missing email",
			body:        `{"personalInfo":{"fullName":"Jane Doe"}}`,
			wantStatus:  fasthttp.StatusBadRequest,
			wantMessage: msgMissingIdentity,
			wantError:   "email",
		},
		{
			name:        "blank full name",
			body:        `{"personalInfo":{"fullName":"   ","email":"jane@x.com"}}`,
			wantStatus:  fasthttp.StatusBadRequest,
			wantMessage: msgMissingIdentity,
			wantError:   "full name",
		},
		{
			name:        "field too long",
			body:        fmt.Sprintf(`{"personalInfo":{"fullName":%q,"email":"jane@x.com"}}`, strings.Repeat("a", resume2pdf.MaxNameLength+1)),
			wantStatus:  fasthttp.StatusBadRequest,
			wantMessage: msgInvalidResume,
			wantError:   "fullName",
		},
		{
			name:        "malformed json",
			body:        `{"personalInfo":`,
			wantStatus:  fasthttp.StatusBadRequest,
			wantMessage: msgInvalidJSON,
		},
		{
			name:        "render failure hidden",
			body:        validBody,
			genErr:      fmt.Errorf("%w: chrome crashed", resume2pdf.ErrPDFGeneration),
			wantStatus:  fasthttp.StatusInternalServerError,
			wantMessage: msgGenerateFailed,
			wantError:   msgGenericCause,
		},
		{
			name:        "render failure exposed",
			body:        validBody,
			genErr:      fmt.Errorf("%w: chrome crashed", resume2pdf.ErrPDFGeneration),
			expose:      true,
			wantStatus:  fasthttp.StatusInternalServerError,
			wantMessage: msgGenerateFailed,
			wantError:   "chrome crashed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, Config{ExposeErrors: tt.expose}, &fakeGenerator{err: tt.genErr})
			resp := do(t, s, fasthttp.MethodPost, RouteGenerate, []byte(tt.body), nil)

			if resp.StatusCode() != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode(), tt.wantStatus, resp.Body())
			}
			got := decodeError(t, resp)
			if got.Success {
				t.Error("success = true")
			}
			if got.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", got.Message, tt.wantMessage)
			}
			if tt.wantError != "" && !strings.Contains(got.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", got.Error, tt.wantError)
			}
		})
	}
}

func TestGenerateResume_BodyTooLarge(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	s := newTestServer(t, Config{MaxBodyBytes: 16}, gen)

	resp := do(t, s, fasthttp.MethodPost, RouteGenerate, []byte(validBody), nil)
	if resp.StatusCode() != fasthttp.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode())
	}
	if gen.gotDoc != nil {
		t.Error("generator should not be called")
	}
}

func TestGenerateResume_PanicRecovered(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{}, &fakeGenerator{panicMsg: "boom"})
	resp := do(t, s, fasthttp.MethodPost, RouteGenerate, []byte(validBody), nil)

	if resp.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode())
	}
	got := decodeError(t, resp)
	if got.Message != msgInternal || got.Error != msgGenericCause {
		t.Errorf("got %+v", got)
	}
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Jane_Doe_Resume.pdf", `attachment; filename="Jane_Doe_Resume.pdf"`},
		{`Ja"ne_Resume.pdf`, `attachment; filename="Ja_ne_Resume.pdf"; filename*=UTF-8''Ja%22ne_Resume.pdf`},
		{"Zoë_Resume.pdf", `attachment; filename="Zo__Resume.pdf"; filename*=UTF-8''Zo%C3%AB_Resume.pdf`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := contentDisposition(tt.in); got != tt.want {
				t.Errorf("contentDisposition(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStatusAndHealth
// ---------------------------------------------------------------------------

func TestStatus(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{Version: "1.2.3"}, &fakeGenerator{})
	resp := do(t, s, fasthttp.MethodGet, RouteStatus, nil, nil)

	var got statusResponse
	if err := json.Unmarshal(resp.Body(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Message != msgRunning {
		t.Errorf("got %+v", got)
	}
	if got.Data.Version != "1.2.3" || !got.Data.EngineStarted {
		t.Errorf("data = %+v", got.Data)
	}
	want := []string{"POST /api/generate-resume", "GET /api/status"}
	if strings.Join(got.Data.Endpoints, ",") != strings.Join(want, ",") {
		t.Errorf("endpoints = %v, want %v", got.Data.Endpoints, want)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{Environment: "production"}, &fakeGenerator{})
	resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, nil)

	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	var got healthResponse
	if err := json.Unmarshal(resp.Body(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "OK" || got.Environment != "production" {
		t.Errorf("got %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", got.Timestamp, err)
	}
	if got.Uptime < 0 {
		t.Errorf("uptime = %v", got.Uptime)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{}, &fakeGenerator{})
	resp := do(t, s, fasthttp.MethodGet, "/nope", nil, nil)

	if resp.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	got := decodeError(t, resp)
	if got.Message != msgNotFound || got.Path != "/nope" {
		t.Errorf("got %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{}, &fakeGenerator{})
	resp := do(t, s, fasthttp.MethodGet, RouteGenerate, nil, nil)

	if resp.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode())
	}
}

// ---------------------------------------------------------------------------
// TestMiddleware
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{AllowedOrigins: []string{"https://app.example"}}, &fakeGenerator{})

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()
		resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, map[string]string{"Origin": "https://app.example"})
		if got := string(resp.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)); got != "https://app.example" {
			t.Errorf("allow-origin = %q", got)
		}
		if got := string(resp.Header.Peek(fasthttp.HeaderAccessControlAllowCredentials)); got != "true" {
			t.Errorf("allow-credentials = %q", got)
		}
	})

	t.Run("foreign origin", func(t *testing.T) {
		t.Parallel()
		resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, map[string]string{"Origin": "https://evil.example"})
		if got := resp.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin); len(got) != 0 {
			t.Errorf("allow-origin = %q, want none", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		resp := do(t, s, fasthttp.MethodOptions, RouteGenerate, nil, map[string]string{"Origin": "https://app.example"})
		if resp.StatusCode() != fasthttp.StatusNoContent {
			t.Errorf("status = %d, want 204", resp.StatusCode())
		}
	})
}

func TestCORS_Wildcard(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{AllowedOrigins: []string{"https://app.example", "*"}}, &fakeGenerator{})

	t.Run("listed origin keeps credentials", func(t *testing.T) {
		t.Parallel()
		resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, map[string]string{"Origin": "https://app.example"})
		if got := string(resp.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)); got != "https://app.example" {
			t.Errorf("allow-origin = %q", got)
		}
		if got := string(resp.Header.Peek(fasthttp.HeaderAccessControlAllowCredentials)); got != "true" {
			t.Errorf("allow-credentials = %q", got)
		}
	})

	t.Run("other origin gets a literal star", func(t *testing.T) {
		t.Parallel()
		resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, map[string]string{"Origin": "https://evil.example"})
		if got := string(resp.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)); got != "*" {
			t.Errorf("allow-origin = %q, want *", got)
		}
		if got := resp.Header.Peek(fasthttp.HeaderAccessControlAllowCredentials); len(got) != 0 {
			t.Errorf("allow-credentials = %q, want none", got)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Config{}, &fakeGenerator{})
	resp := do(t, s, fasthttp.MethodGet, "/missing", nil, nil)

	for _, kv := range securityHeaders {
		if got := string(resp.Header.Peek(kv[0])); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
	if len(resp.Header.Peek("Content-Security-Policy")) != 0 {
		t.Error("Content-Security-Policy should not be set")
	}
}

func TestLogging_RequestIDAndMetrics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := &httpRecorder{}
	s := New(Config{}, Deps{
		Generator: &fakeGenerator{},
		Logger:    zerolog.New(&buf),
		Recorder:  rec,
	})

	resp := do(t, s, fasthttp.MethodGet, RouteHealth, nil, nil)
	id := string(resp.Header.Peek(headerRequestID))
	if id == "" {
		t.Fatal("X-Request-ID not set")
	}
	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) {
		t.Errorf("log missing request id: %s", buf.String())
	}

	_ = do(t, s, fasthttp.MethodGet, "/missing", nil, nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if strings.Join(rec.routes, ",") != RouteHealth+","+unmatchedRoute {
		t.Errorf("routes = %v", rec.routes)
	}
}

func TestIncomingRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"client id", "abc-123", true},
		{"empty", "", false},
		{"control characters", "abc\x01", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctx fasthttp.RequestCtx
			ctx.Request.Header.Set(headerRequestID, tt.header)
			got := incomingRequestID(&ctx)
			if tt.keep && got != tt.header {
				t.Errorf("got %q, want %q", got, tt.header)
			}
			if !tt.keep && (got == tt.header || got == "") {
				t.Errorf("got %q, want a fresh id", got)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prom.NewRegistry()
	pr := metrics.NewPrometheusRecorder(reg)
	pr.IncEngineLaunch()

	s := New(Config{MetricsPath: "/metrics"}, Deps{
		Generator: &fakeGenerator{},
		Logger:    zerolog.Nop(),
		Recorder:  pr,
		Registry:  reg,
	})

	resp := do(t, s, fasthttp.MethodGet, "/metrics", nil, nil)
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("resume2pdf_engine_launches_total 1")) {
		t.Errorf("metrics body missing counter:\n%s", resp.Body())
	}
}

// ---------------------------------------------------------------------------
// TestServe
// ---------------------------------------------------------------------------

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{delay: 200 * time.Millisecond}
	s := newTestServer(t, Config{}, gen)
	ln := fasthttputil.NewInmemoryListener()

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(ctx, ln) }()

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}

	var req fasthttp.Request
	var resp fasthttp.Response
	req.SetRequestURI("http://resume2pdf" + RouteGenerate)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetBodyString(validBody)

	done := make(chan error, 1)
	go func() { done <- client.Do(&req, &resp) }()

	// Shut down while the render is in flight.
	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("in-flight request failed: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode())
	}

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	if gen.ctxErr != nil {
		t.Errorf("render context cancelled by shutdown: %v", gen.ctxErr)
	}
}
