package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeProbe returns a probe where Chrome exists at /opt/chrome and nothing
// else is special.
func fakeProbe(t *testing.T, vars map[string]string) doctorProbe {
	t.Helper()
	return doctorProbe{
		getenv:   mapEnv(vars),
		lookPath: func() (string, bool) { return "/opt/chrome", true },
		stat: func(p string) (os.FileInfo, error) {
			if p == "/opt/chrome" || p == "/custom/chrome" {
				return nil, nil
			}
			return nil, fs.ErrNotExist
		},
		version: func(string) (string, error) { return "Chromium 131.0", nil },
		tempDir: t.TempDir,
		shmSize: func() int64 { return 1 << 30 },
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctor
// ---------------------------------------------------------------------------

func TestRunDoctor_Ready(t *testing.T) {
	t.Parallel()

	r := runDoctor(fakeProbe(t, nil))

	if r.Status != statusReady {
		t.Errorf("Status = %q, want ready (warnings %v, errors %v)", r.Status, r.Warnings, r.Errors)
	}
	if !r.Chrome.Found || r.Chrome.Path != "/opt/chrome" || r.Chrome.Source != "auto-detected" {
		t.Errorf("Chrome = %+v", r.Chrome)
	}
	if r.Chrome.Version != "Chromium 131.0" {
		t.Errorf("Version = %q", r.Chrome.Version)
	}
	if !r.System.TempWritable || r.System.ShmBytes != 1<<30 {
		t.Errorf("System = %+v", r.System)
	}
}

func TestRunDoctor_BrowserSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		vars       map[string]string
		wantSource string
		wantErr    bool
	}{
		{"resume2pdf variable", map[string]string{"RESUME2PDF_BROWSER_BIN": "/custom/chrome", "ROD_BROWSER_BIN": "/opt/chrome"}, "RESUME2PDF_BROWSER_BIN", false},
		{"rod variable", map[string]string{"ROD_BROWSER_BIN": "/custom/chrome"}, "ROD_BROWSER_BIN", false},
		{"configured path missing", map[string]string{"RESUME2PDF_BROWSER_BIN": "/missing/chrome"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := runDoctor(fakeProbe(t, tt.vars))
			if tt.wantErr {
				if r.Status != statusErrors || r.Chrome.Found {
					t.Errorf("want error status, got %+v", r)
				}
				return
			}
			if r.Chrome.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", r.Chrome.Source, tt.wantSource)
			}
		})
	}
}

func TestRunDoctor_ChromeNotFound(t *testing.T) {
	t.Parallel()

	p := fakeProbe(t, nil)
	p.lookPath = func() (string, bool) { return "", false }

	r := runDoctor(p)
	if r.Status != statusErrors {
		t.Errorf("Status = %q, want errors", r.Status)
	}
	if len(r.Errors) == 0 || !strings.Contains(r.Errors[0], "RESUME2PDF_BROWSER_BIN") {
		t.Errorf("Errors = %v", r.Errors)
	}
}

func TestRunDoctor_Warnings(t *testing.T) {
	t.Parallel()

	p := fakeProbe(t, map[string]string{"RESUME2PDF_CONTAINER": "1", "CI": "true"})
	p.version = func(string) (string, error) { return "", errors.New("exec failed") }
	p.shmSize = func() int64 { return 32 << 20 }

	r := runDoctor(p)
	if r.Status != statusWarnings {
		t.Errorf("Status = %q, want warnings", r.Status)
	}
	if !r.Env.Container || r.Env.ContainerHint != "RESUME2PDF_CONTAINER=1" || !r.Env.CI {
		t.Errorf("Env = %+v", r.Env)
	}
	if len(r.Warnings) != 2 {
		t.Errorf("Warnings = %v, want version and shm warnings", r.Warnings)
	}
}

func TestRunDoctor_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("page:\n  size: a4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("page:\n  sise: a4\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := fakeProbe(t, nil)
	p.configPath = good
	if r := runDoctor(p); r.Status != statusReady || r.System.ConfigPath != good {
		t.Errorf("good config: %+v", r)
	}

	p.configPath = bad
	if r := runDoctor(p); r.Status != statusErrors {
		t.Errorf("bad config: Status = %q, want errors", r.Status)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	r := runDoctor(fakeProbe(t, nil))
	var buf bytes.Buffer
	printDoctorResult(&buf, r)

	out := buf.String()
	for _, want := range []string{"resume2pdf doctor", "[OK] Found at /opt/chrome", "Status: Ready to render"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorResult_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(runDoctor(fakeProbe(t, nil)))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"status", "chrome", "environment", "system"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing %q: %s", key, data)
		}
	}
}

func TestRunDoctorCmd(t *testing.T) {
	t.Parallel()

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		tio := newTestEnv(nil, "")
		code := runDoctorCmd([]string{"--json"}, tio.env)
		if code != ExitSuccess && code != ExitGeneral {
			t.Fatalf("exit code = %d", code)
		}
		var r doctorResult
		if err := json.Unmarshal(tio.stdout.Bytes(), &r); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, tio.stdout.String())
		}
		if r.Status == "" {
			t.Error("status missing")
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		tio := newTestEnv(nil, "")
		if code := runDoctorCmd([]string{"--bogus"}, tio.env); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}
