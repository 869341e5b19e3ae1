package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Source  string `json:"source,omitempty"` // which setting located the binary
	Version string `json:"version,omitempty"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

type systemInfo struct {
	TempWritable bool   `json:"temp_writable"`
	ShmBytes     int64  `json:"shm_bytes,omitempty"`
	ConfigPath   string `json:"config_path,omitempty"`
}

// doctorProbe holds the host lookups doctor performs, replaceable in tests.
type doctorProbe struct {
	getenv     func(string) string
	lookPath   func() (string, bool)
	stat       func(string) (os.FileInfo, error)
	version    func(bin string) (string, error)
	tempDir    func() string
	shmSize    func() int64
	configPath string
}

func defaultProbe(env *Environment) doctorProbe {
	return doctorProbe{
		getenv:   env.Getenv,
		lookPath: launcher.LookPath,
		stat:     os.Stat,
		version: func(bin string) (string, error) {
			out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- operator-configured binary
			return strings.TrimSpace(string(out)), err
		},
		tempDir: os.TempDir,
		shmSize: devShmSize,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := newFlagSet("doctor", printDoctorUsage, env.Stdout)
	jsonOutput := fs.Bool("json", false, "machine-readable output")
	configFlag := fs.StringP("config", "c", "", "config file name or path")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, errHelpRequested) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, formatError(err))
		return ExitUsage
	}

	probe := defaultProbe(env)
	probe.configPath = *configFlag
	if probe.configPath == "" {
		probe.configPath = env.Getenv("RESUME2PDF_CONFIG")
	}

	result := runDoctor(probe)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(p doctorProbe) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkChrome(result, p)
	checkEnvironment(result, p)
	checkSystem(result, p)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkChrome locates the browser the engine would launch.
func checkChrome(result *doctorResult, p doctorProbe) {
	path, source := "", ""
	switch {
	case p.getenv("RESUME2PDF_BROWSER_BIN") != "":
		path, source = p.getenv("RESUME2PDF_BROWSER_BIN"), "RESUME2PDF_BROWSER_BIN"
	case p.getenv("ROD_BROWSER_BIN") != "":
		path, source = p.getenv("ROD_BROWSER_BIN"), "ROD_BROWSER_BIN"
	default:
		found := false
		path, found = p.lookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set RESUME2PDF_BROWSER_BIN")
			return
		}
		source = "auto-detected"
	}

	if _, err := p.stat(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s (%s)", path, source))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = path
	result.Chrome.Source = source

	if v, err := p.version(path); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, p doctorProbe) {
	result.Env.Container, result.Env.ContainerHint = isContainer(p)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if p.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(p doctorProbe) (bool, string) {
	if p.getenv("RESUME2PDF_CONTAINER") == "1" {
		return true, "RESUME2PDF_CONTAINER=1"
	}
	if _, err := p.stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := p.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if p.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// minShmBytes is the /dev/shm size below which Chrome tends to crash on
// large pages. The engine passes --disable-dev-shm-usage, so this is a
// warning only.
const minShmBytes = 64 << 20

// checkSystem verifies temp space, shared memory and the config file.
func checkSystem(result *doctorResult, p doctorProbe) {
	tmpDir := p.tempDir()
	testFile := filepath.Join(tmpDir, "resume2pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}

	if size := p.shmSize(); size > 0 {
		result.System.ShmBytes = size
		if size < minShmBytes && result.Env.Container {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("/dev/shm is %d MiB; consider --shm-size=1g for the container", size>>20))
		}
	}

	if p.configPath != "" {
		result.System.ConfigPath = p.configPath
		if _, err := resolveConfig(p.configPath, &envConfig{}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Config %s: %v", p.configPath, err))
		}
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "resume2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s (%s)\n", r.Chrome.Path, r.Chrome.Source)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.ShmBytes > 0 {
		fmt.Fprintf(w, "  [OK] /dev/shm: %d MiB\n", r.System.ShmBytes>>20)
	}
	if r.System.ConfigPath != "" {
		fmt.Fprintf(w, "  [OK] Config: %s\n", r.System.ConfigPath)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to render")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf doctor [--json] [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome, the environment and the config are ready.")
}
