package resume2pdf

import "errors"

// Validation errors. Every one of them wraps ErrValidation so callers can
// map the whole family to a client error.
var (
	ErrValidation      = errors.New("invalid résumé")
	ErrMissingFullName = errors.New("full name is required")
	ErrMissingEmail    = errors.New("email is required")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrTooManyEntries  = errors.New("too many entries")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Footer validation errors.
	ErrInvalidFooterPosition = errors.New("invalid footer position")
)

// Engine lifecycle errors.
var (
	ErrEngineStart    = errors.New("failed to start rendering engine")
	ErrEngineShutdown = errors.New("failed to shut down rendering engine")
)

// Render errors.
var (
	ErrPageCreate    = errors.New("failed to create browser page")
	ErrPageLoad      = errors.New("failed to load page")
	ErrPDFGeneration = errors.New("PDF generation failed")
)

// ErrCompose reports a markup composition failure. It signals a broken
// template, never bad input.
var ErrCompose = errors.New("markup composition failed")

// ErrInternal wraps panics recovered from the pipeline.
var ErrInternal = errors.New("internal error")

// IsValidationError reports whether err was caused by an invalid document.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsEngineError reports whether err comes from starting or stopping the engine.
func IsEngineError(err error) bool {
	return errors.Is(err, ErrEngineStart) || errors.Is(err, ErrEngineShutdown)
}

// IsRenderError reports whether err comes from a page lifecycle step.
func IsRenderError(err error) bool {
	return errors.Is(err, ErrPageCreate) ||
		errors.Is(err, ErrPageLoad) ||
		errors.Is(err, ErrPDFGeneration)
}
