package hints

// ForBrowserConnect tests use t.Setenv and swap IsInContainer, so they do not
// run in parallel.

import (
	"strings"
	"testing"
)

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func TestForBrowserConnect_NoBinaryConfigured(t *testing.T) {
	withContainer(t, false)
	t.Setenv("ROD_BROWSER_BIN", "")
	t.Setenv("RESUME2PDF_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if !strings.HasPrefix(hint, "\n  hint: ") {
		t.Errorf("hint = %q, want hint prefix", hint)
	}
	if !strings.Contains(hint, "RESUME2PDF_BROWSER_BIN") {
		t.Error("expected RESUME2PDF_BROWSER_BIN suggestion")
	}
	if strings.Contains(hint, "/dev/shm") {
		t.Error("unexpected container suggestion outside a container")
	}
	if !strings.Contains(hint, "resume2pdf doctor") {
		t.Error("expected doctor suggestion")
	}
}

func TestForBrowserConnect_BinaryConfigured(t *testing.T) {
	withContainer(t, false)
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chromium")
	t.Setenv("RESUME2PDF_BROWSER_BIN", "")

	if hint := ForBrowserConnect(); strings.Contains(hint, "BROWSER_BIN") {
		t.Errorf("hint = %q, should not suggest a binary when one is set", hint)
	}
}

func TestForBrowserConnect_InContainer(t *testing.T) {
	withContainer(t, true)
	t.Setenv("ROD_BROWSER_BIN", "")
	t.Setenv("RESUME2PDF_BROWSER_BIN", "/usr/bin/chromium")

	hint := ForBrowserConnect()

	if !strings.Contains(hint, "/dev/shm") {
		t.Errorf("hint = %q, want container suggestion", hint)
	}
	if strings.Count(hint, "hint:") != 1 {
		t.Errorf("hint = %q, want a single hint line", hint)
	}
}

func TestStaticHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"timeout", ForTimeout(), "settleTimeout"},
		{"validation", ForValidation(), "personalInfo.fullName"},
		{"output directory", ForOutputDirectory(), "writable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.got, "\n  hint: ") {
				t.Errorf("%s = %q, want hint prefix", tt.name, tt.got)
			}
			if !strings.Contains(tt.got, tt.want) {
				t.Errorf("%s = %q, want containing %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	paths := []string{"prod.yaml", "prod.yml", "/home/u/.config/go-resume2pdf/prod.yaml"}
	hint := ForConfigNotFound(paths)

	if !strings.Contains(hint, "--config") {
		t.Errorf("hint = %q, want --config suggestion", hint)
	}
	if !strings.Contains(hint, "create /home/u/.config/go-resume2pdf/prod.yaml") {
		t.Errorf("hint = %q, want user config path", hint)
	}

	if hint := ForConfigNotFound(nil); strings.Contains(hint, "create") {
		t.Errorf("hint = %q, no path to suggest", hint)
	}
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	if got := ForStyleNotFound(nil); got != "" {
		t.Errorf("ForStyleNotFound(nil) = %q, want empty", got)
	}
	if got := ForStyleNotFound([]string{"resume", "compact"}); !strings.Contains(got, "available: resume, compact") {
		t.Errorf("ForStyleNotFound = %q", got)
	}
}
