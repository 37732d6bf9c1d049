package providers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderTimeout is returned when a provider call or its polling
	// loop exceeds the configured bound.
	ErrProviderTimeout = errors.New("provider timed out")
)

// ProviderError wraps a failure reported by a provider: a non-success HTTP
// status, an explicit error payload, or a terminal failed/canceled job.
// Transport and decode failures are wrapped here too, so the orchestrator
// only has to deal with one failure kind when deciding to fall back.
type ProviderError struct {
	Provider string
	Model    string
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", e.Provider, e.Model, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s (%s): provider call failed", e.Provider, e.Model)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AllProvidersFailed aggregates every attempt's error after the fallback
// chain for a generation path is exhausted.
type AllProvidersFailed struct {
	Path   string
	Errors []error
}

func (e *AllProvidersFailed) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all providers failed for %s path: [%s]", e.Path, strings.Join(msgs, "; "))
}

func (e *AllProvidersFailed) Unwrap() []error {
	return e.Errors
}
