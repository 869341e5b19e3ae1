package metrics

import "time"

// Outcome enumerates the result categories of one generation.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeEngineError Outcome = "engine_error"
	OutcomeRenderError Outcome = "render_error"
	OutcomeFailed      Outcome = "failed"
)

// Stage names observed by ObserveStageDuration.
const (
	StageCompose = "compose"
	StageRender  = "render"
)

// Recorder defines observability hooks for the pipeline.
type Recorder interface {
	ObserveGenerateDuration(d time.Duration)
	IncGenerateOutcome(outcome Outcome)
	ObserveStageDuration(stage string, d time.Duration)
	IncEngineLaunch()
	SetPagesInUse(n int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveGenerateDuration(time.Duration)         {}
func (NoopRecorder) IncGenerateOutcome(Outcome)                    {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) IncEngineLaunch()                              {}
func (NoopRecorder) SetPagesInUse(int)                             {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}

var _ Recorder = NoopRecorder{}
