// Package providers defines the uniform surface over third-party image
// generation APIs. Both calling conventions found in the wild are hidden
// behind RunModel: blocking SDK calls that return final output directly,
// and create-then-poll prediction APIs.
package providers

import (
	"context"
	"time"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Job is the terminal state of one provider prediction.
type Job struct {
	ID     string
	Status string
	Output any
	Error  string
}

// Input carries the normalized generation knobs passed to a model. Adapters
// translate these into their provider's own parameter names and drop what
// the model does not support.
type Input struct {
	Prompt         string  `json:"prompt"`
	ReferenceImage string  `json:"image,omitempty"`
	Size           string  `json:"size,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Guidance       float64 `json:"guidance,omitempty"`
	Strength       float64 `json:"strength,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

// Provider runs one model to completion and returns the job's final state.
// Implementations must honor ctx cancellation at every network await point.
type Provider interface {
	Name() string
	RunModel(ctx context.Context, modelID string, input Input) (*Job, error)
}

// PollPolicy bounds a create-then-poll flow. A single policy is injected
// into every polling adapter instead of scattering sleep constants.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    2 * time.Second,
		MaxAttempts: 60,
		MaxElapsed:  2 * time.Minute,
	}
}

// Poll repeatedly calls fetch at the policy's interval until the job reaches
// a terminal status or a bound is exceeded. A never-terminal job fails with
// ErrProviderTimeout exactly at the configured bound.
func Poll(ctx context.Context, policy PollPolicy, fetch func(ctx context.Context) (*Job, error)) (*Job, error) {
	start := time.Now()

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		job, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case StatusSucceeded, StatusFailed, StatusCanceled:
			return job, nil
		}

		if policy.MaxElapsed > 0 && time.Since(start)+policy.Interval > policy.MaxElapsed {
			return nil, ErrProviderTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Interval):
		}
	}

	return nil, ErrProviderTimeout
}
