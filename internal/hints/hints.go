// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch and connection errors.
func ForBrowserConnect() string {
	var hints []string

	if os.Getenv("ROD_BROWSER_BIN") == "" && os.Getenv("RESUME2PDF_BROWSER_BIN") == "" {
		hints = append(hints, "set RESUME2PDF_BROWSER_BIN to use an installed Chrome")
	}

	if IsInContainer() {
		hints = append(hints, "install chromium in the image or mount a larger /dev/shm")
	}

	hints = append(hints, "run 'resume2pdf doctor' for diagnostics")

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the settle timeout.
func ForTimeout() string {
	return format("raise engine.settleTimeout (RESUME2PDF_SETTLE_TIMEOUT) if the page loads remote fonts or images")
}

// ForValidation returns a hint describing the required résumé fields.
func ForValidation() string {
	return format("personalInfo.fullName and personalInfo.email must be non-empty")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-resume2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-resume2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output file errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
