// Package pipeline turns a résumé view into a self-contained HTML document.
//
// The stages are:
//   - template execution with html/template (contextual escaping of every field)
//   - CSS injection of the page rules and the stylesheet into <head>
//
// PDF generation is handled separately by the root resume2pdf package using
// headless Chrome (go-rod). This keeps the pipeline free of I/O: equal views
// produce byte-identical documents.
package pipeline
