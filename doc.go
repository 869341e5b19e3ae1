// Package resume2pdf renders structured résumés to PDF using headless Chrome.
//
// # Quick Start
//
// Create one engine per process, a generator on top of it, and shut the
// engine down when done:
//
//	engine := resume2pdf.NewEngine()
//	defer engine.Shutdown()
//
//	gen, err := resume2pdf.NewGenerator(engine)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := gen.Generate(ctx, &resume2pdf.Document{
//	    PersonalInfo: resume2pdf.PersonalInfo{
//	        FullName: "Jane Doe",
//	        Email:    "jane@example.com",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.PDF, 0644)
//
// # Pipeline
//
//  1. Validation: full name and email are required, field lengths are bounded
//  2. Composition: the document is mapped onto an html/template view; empty
//     sections are omitted and every field is escaped
//  3. Rendering: the markup is loaded into a fresh page of the shared browser,
//     left to settle until the network is idle, and printed to PDF
//
// # Engine
//
// The Engine launches Chromium lazily, serialises startup so concurrent
// first requests share one browser, probes liveness before reuse, and
// relaunches a browser found dead. Concurrent renders each get their own page,
// bounded by WithWorkers. Shutdown is idempotent.
//
// # Errors
//
// Use IsValidationError, IsEngineError and IsRenderError to classify errors;
// the sentinels wrap their causes so errors.Is keeps working on both.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
// Use WithBrowserBin or ROD_BROWSER_BIN to select an installed binary.
package resume2pdf
