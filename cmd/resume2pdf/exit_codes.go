package main

import (
	"errors"
	"os"
	"strings"

	"github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/assets"
	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/dateutil"
	"github.com/alnah/go-resume2pdf/internal/hints"
)

// Exit codes for the resume2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or résumé data
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if resume2pdf.IsEngineError(err) || resume2pdf.IsRenderError(err) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if resume2pdf.IsValidationError(err) ||
		errors.Is(err, ErrParseInput) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, resume2pdf.ErrInvalidPageSize) ||
		errors.Is(err, resume2pdf.ErrInvalidOrientation) ||
		errors.Is(err, resume2pdf.ErrInvalidMargin) ||
		errors.Is(err, resume2pdf.ErrInvalidFooterPosition) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) {
		return ExitUsage
	}

	return ExitGeneral
}

// formatError appends an actionable hint when one applies.
func formatError(err error) string {
	msg := "error: " + err.Error()
	switch {
	case errors.Is(err, resume2pdf.ErrPageLoad):
		return msg + hints.ForTimeout()
	case resume2pdf.IsEngineError(err) || errors.Is(err, resume2pdf.ErrPageCreate):
		return msg + hints.ForBrowserConnect()
	case errors.Is(err, resume2pdf.ErrMissingFullName), errors.Is(err, resume2pdf.ErrMissingEmail):
		return msg + hints.ForValidation()
	case errors.Is(err, ErrWriteOutput):
		return msg + hints.ForOutputDirectory()
	case errors.Is(err, config.ErrConfigNotFound):
		return msg + hints.ForConfigNotFound(triedConfigPaths(err))
	case errors.Is(err, assets.ErrStyleNotFound):
		names, _ := assets.NewEmbeddedLoader().ListStyles()
		return msg + hints.ForStyleNotFound(names)
	}
	return msg
}

// triedConfigPaths recovers the search list from a config-not-found error.
func triedConfigPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
