package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-resume2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestParseRenderFlags
// ---------------------------------------------------------------------------

func TestParseRenderFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parseRenderFlags([]string{
		"resume.json", "-o", "out.pdf", "--html", "-p", "a4", "--margin", "1",
		"--footer-page-number", "--style", "classic", "-w", "2", "-q",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rest) != 1 || rest[0] != "resume.json" {
		t.Errorf("positional = %v", rest)
	}
	if f.output != "out.pdf" || !f.html || !f.common.quiet {
		t.Errorf("output flags = %+v", f)
	}
	if f.page.size != "a4" || f.page.margin != 1 {
		t.Errorf("page = %+v", f.page)
	}
	if !f.footer.pageNumber || f.style.style != "classic" || f.engine.workers != 2 {
		t.Errorf("flags = %+v", f)
	}
	if !f.changed("margin") || f.changed("orientation") {
		t.Error("changed() does not track explicit flags")
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		_, _, err := parseServeFlags([]string{"--nope"}, &bytes.Buffer{})
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		_, _, err := parseRenderFlags([]string{"--help"}, &out)
		if !errors.Is(err, errHelpRequested) {
			t.Errorf("error = %v, want errHelpRequested", err)
		}
		if !strings.Contains(out.String(), "Usage: resume2pdf render") {
			t.Errorf("usage not printed: %q", out.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeSharedFlags
// ---------------------------------------------------------------------------

func TestMergeSharedFlags(t *testing.T) {
	t.Parallel()

	t.Run("only changed flags apply", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseServeFlags([]string{"--orientation", "landscape", "--date-format", "iso"}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Page.Size = "legal"
		mergeSharedFlags(cfg, f.changed, f.engine, f.page, f.footer, f.style)

		if cfg.Page.Orientation != "landscape" || cfg.Date.Format != "iso" {
			t.Errorf("flags not applied: %+v %+v", cfg.Page, cfg.Date)
		}
		if cfg.Page.Size != "legal" || cfg.Page.Margin != 0.5 {
			t.Errorf("unset flags overwrote config: %+v", cfg.Page)
		}
	})

	t.Run("footer flags enable footer", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseServeFlags([]string{"--footer-text", "Confidential"}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		mergeSharedFlags(cfg, f.changed, f.engine, f.page, f.footer, f.style)
		if !cfg.Footer.Enabled || cfg.Footer.Text != "Confidential" {
			t.Errorf("footer = %+v", cfg.Footer)
		}
	})

	t.Run("no-footer wins", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseServeFlags([]string{"--footer-page-number", "--no-footer"}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Footer.Enabled = true
		mergeSharedFlags(cfg, f.changed, f.engine, f.page, f.footer, f.style)
		if cfg.Footer.Enabled {
			t.Error("footer should be disabled")
		}
	})
}
