package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/logger"
	"github.com/alnah/go-resume2pdf/internal/metrics"
)

// Sentinel errors for the render command.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read résumé file")
	ErrParseInput  = errors.New("failed to parse résumé JSON")
	ErrWriteOutput = errors.New("failed to write output file")
)

const (
	stdinArg        = "-"
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
	maxInputBytes   = 10 << 20
)

// runRender renders one résumé JSON file (or stdin) to a PDF file.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseRenderFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w: usage: resume2pdf render <resume.json|->", ErrNoInput)
	}
	if len(rest) > 1 {
		return fmt.Errorf("%w: render takes one input, got %d", ErrUsage, len(rest))
	}

	cfg, err := resolveConfig(f.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return err
	}
	mergeSharedFlags(cfg, f.changed, f.engine, f.page, f.footer, f.style)
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := readDocument(rest[0], env.Stdin)
	if err != nil {
		return err
	}

	log := logger.Init(loggerConfig(cfg, f.common), env.Stderr)
	rec := metrics.NoopRecorder{}

	engine := buildEngine(cfg, log, rec)
	defer func() {
		if serr := engine.Shutdown(); serr != nil {
			log.Warn().Err(serr).Msg("stopping browser")
		}
	}()

	gen, err := buildGenerator(engine, cfg, log, rec)
	if err != nil {
		return err
	}

	start := env.Now()
	res, err := gen.Generate(ctx, doc)
	if err != nil {
		return err
	}

	outPath := resolveOutputPath(f.output, res.Filename)
	if err := fileutil.WriteFileAtomic(outPath, res.PDF, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if f.html {
		htmlPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".html"
		if err := fileutil.WriteFileAtomic(htmlPath, res.HTML, filePermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "%s (%d bytes", outPath, res.Size)
		if f.common.verbose {
			fmt.Fprintf(env.Stdout, ", %s", env.Now().Sub(start).Round(time.Millisecond))
		}
		fmt.Fprintln(env.Stdout, ")")
	}
	return nil
}

// readDocument decodes a résumé from path, or from stdin when path is "-".
func readDocument(path string, stdin io.Reader) (*resume2pdf.Document, error) {
	var data []byte
	var err error
	if path == stdinArg {
		data, err = io.ReadAll(io.LimitReader(stdin, maxInputBytes+1))
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided input path
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if len(data) > maxInputBytes {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ErrReadInput, maxInputBytes)
	}

	var doc resume2pdf.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
	}
	return &doc, nil
}

// separatorReplacer keeps a name containing slashes in one path element.
var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// resolveOutputPath uses the flag as a file, or as a directory when it ends
// with a separator or names an existing directory. Empty means the suggested
// filename in the working directory.
func resolveOutputPath(flagOutput, suggested string) string {
	suggested = separatorReplacer.Replace(suggested)
	if flagOutput == "" {
		return suggested
	}
	if strings.HasSuffix(flagOutput, string(filepath.Separator)) || strings.HasSuffix(flagOutput, "/") {
		return filepath.Join(flagOutput, suggested)
	}
	if info, err := os.Stat(flagOutput); err == nil && info.IsDir() {
		return filepath.Join(flagOutput, suggested)
	}
	return flagOutput
}
