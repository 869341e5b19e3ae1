//go:build integration

package resume2pdf

// Notes:
// - Integration test setup: one shared Engine for all integration tests
// - testEngine is created in TestMain and shut down after all tests complete
// - Requires Chrome/Chromium (downloaded by rod when missing)

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testTimeout is the standard timeout for integration test operations.
const testTimeout = 60 * time.Second

// testEngine is shared by all integration tests. Tests only render through
// it; none of them shuts it down.
var testEngine *Engine

func TestMain(m *testing.M) {
	testEngine = NewEngine(WithWorkers(min(ResolvePoolSize(0), 4)))

	code := m.Run()

	_ = testEngine.Shutdown()
	os.Exit(code)
}

func newIntegrationGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(testEngine)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestIntegration_MinimalDocument(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := newIntegrationGenerator(t).Generate(ctx, &Document{
		PersonalInfo: PersonalInfo{FullName: "Jane Doe", Email: "jane@x.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(res.PDF, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", res.PDF[:min(len(res.PDF), 16)])
	}
	if res.Filename != "Jane_Doe_Resume.pdf" {
		t.Errorf("Filename = %q", res.Filename)
	}
}

func TestIntegration_OngoingExperience(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := newIntegrationGenerator(t).Generate(ctx, &Document{
		PersonalInfo: PersonalInfo{FullName: "Jane Doe", Email: "jane@x.com"},
		Experience:   []Experience{{Company: "Acme", Position: "Engineer", StartDate: "2021-03", Current: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(res.HTML, []byte("Mar 2021 - Present")) {
		t.Error("date range should end in Present")
	}
	if len(res.PDF) == 0 {
		t.Error("empty PDF")
	}
}

func TestIntegration_ConcurrentRendersShareBrowser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if err := testEngine.EnsureStarted(ctx); err != nil {
		t.Fatal(err)
	}
	before := testEngine.Launches()

	g := newIntegrationGenerator(t)
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.Generate(ctx, validDocument())
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("render %d: %v", i, err)
		}
	}
	if got := testEngine.Launches(); got != before {
		t.Errorf("launches = %d, want %d", got, before)
	}
}

// A page with a request that never completes trips the settle timeout; the same
// engine keeps serving afterwards.
func TestIntegration_SettleTimeoutThenRecover(t *testing.T) {
	e := NewEngine(WithSettleTimeout(time.Second), WithWorkers(1))
	defer func() { _ = e.Shutdown() }()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	slow := `<html><body><script>
fetch("http://10.255.255.1/", {mode: "no-cors"});
</script></body></html>`

	_, err := e.Render(ctx, slow, nil)
	if !IsRenderError(err) {
		t.Fatalf("error = %v, want render error", err)
	}

	data, err := e.Render(ctx, "<html><body><p>ok</p></body></html>", nil)
	if err != nil {
		t.Fatalf("render after timeout: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("second render is not a PDF")
	}
}

// An image requested after the load event still has to arrive before the
// page prints.
func TestIntegration_SettleWaitsForLateImage(t *testing.T) {
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
		served.Store(true)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	markup := `<html><body><p>late</p><script>
window.addEventListener("load", () => setTimeout(() => {
  const img = new Image();
  img.src = "` + srv.URL + `/pixel.gif";
  document.body.appendChild(img);
}, 50));
</script></body></html>`

	if _, err := testEngine.Render(ctx, markup, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !served.Load() {
		t.Error("page printed before the late image was served")
	}
}

func TestIntegration_ShutdownThenRelaunch(t *testing.T) {
	e := NewEngine(WithWorkers(1))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if err := e.EnsureStarted(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if _, err := e.Render(ctx, "<p>again</p>", nil); err != nil {
		t.Fatalf("render after shutdown: %v", err)
	}
	if e.Launches() != 2 {
		t.Errorf("Launches() = %d, want 2", e.Launches())
	}
	_ = e.Shutdown()
}
