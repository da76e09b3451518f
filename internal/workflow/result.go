package workflow

import (
	"time"

	"github.com/EdenOved/formpilot/internal/artifacts"
)

// Method names the detector stage that decided the outcome.
type Method string

const (
	MethodURL  Method = "url"
	MethodText Method = "text"
	MethodNone Method = "none"
)

// Outcome is the Success Detector's verdict on a submitted form.
type Outcome struct {
	Success          bool     `json:"success"`
	Method           Method   `json:"method"`
	URL              string   `json:"url"`
	MissingFragments []string `json:"missing_fragments,omitempty"`
	TextLength       int      `json:"text_length"`
}

// Result summarizes one run. It is also the body of the JSON run report.
type Result struct {
	RunID              string               `json:"run_id"`
	URL                string               `json:"url"`
	State              State                `json:"state"`
	History            []Transition         `json:"history"`
	ValidationMessages []string             `json:"validation_messages,omitempty"`
	SubmitAttempts     int                  `json:"submit_attempts"`
	Outcome            *Outcome             `json:"outcome,omitempty"`
	Artifacts          []artifacts.Artifact `json:"artifacts,omitempty"`
	Error              string               `json:"error,omitempty"`
	StartedAt          time.Time            `json:"started_at"`
	FinishedAt         time.Time            `json:"finished_at"`
}

// Succeeded reports whether the submission was confirmed.
func (r *Result) Succeeded() bool { return r.State == StateSucceeded }

// Rejected reports whether the input data failed validation.
func (r *Result) Rejected() bool { return r.State == StateRejected }

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
