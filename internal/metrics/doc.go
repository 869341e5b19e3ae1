// Package metrics records résumé generation, engine and HTTP metrics.
//
// Components receive a Recorder through options and default to NoopRecorder,
// so metrics never need nil checks at call sites. The server wires a
// PrometheusRecorder and exposes its registry through HTTPHandler.
package metrics
