package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollSucceedsAfterNIterations(t *testing.T) {
	policy := PollPolicy{Interval: time.Millisecond, MaxAttempts: 10}

	calls := 0
	job, err := Poll(context.Background(), policy, func(ctx context.Context) (*Job, error) {
		calls++
		if calls < 4 {
			return &Job{ID: "p1", Status: StatusProcessing}, nil
		}
		return &Job{ID: "p1", Status: StatusSucceeded, Output: "http://x/img.png"}, nil
	})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if job.Output != "http://x/img.png" {
		t.Errorf("job.Output = %v, want provider's final output", job.Output)
	}
	if calls != 4 {
		t.Errorf("fetch called %d times, want 4", calls)
	}
}

func TestPollTimesOutAtBound(t *testing.T) {
	policy := PollPolicy{Interval: time.Millisecond, MaxAttempts: 5}

	calls := 0
	_, err := Poll(context.Background(), policy, func(ctx context.Context) (*Job, error) {
		calls++
		return &Job{ID: "p1", Status: StatusProcessing}, nil
	})
	if !errors.Is(err, ErrProviderTimeout) {
		t.Fatalf("Poll() error = %v, want ErrProviderTimeout", err)
	}

	// The bound is exact: the loop must not run a single extra iteration.
	if calls != 5 {
		t.Errorf("fetch called %d times, want exactly 5", calls)
	}
}

func TestPollRespectsMaxElapsed(t *testing.T) {
	policy := PollPolicy{Interval: 50 * time.Millisecond, MaxAttempts: 1000, MaxElapsed: 120 * time.Millisecond}

	start := time.Now()
	_, err := Poll(context.Background(), policy, func(ctx context.Context) (*Job, error) {
		return &Job{Status: StatusProcessing}, nil
	})
	if !errors.Is(err, ErrProviderTimeout) {
		t.Fatalf("Poll() error = %v, want ErrProviderTimeout", err)
	}

	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Poll() ran for %v, want well under the attempt bound", elapsed)
	}
}

func TestPollStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := PollPolicy{Interval: time.Hour, MaxAttempts: 10}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Poll(ctx, policy, func(ctx context.Context) (*Job, error) {
		return &Job{Status: StatusProcessing}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Poll() error = %v, want context.Canceled", err)
	}
}

func TestPollReturnsTerminalFailure(t *testing.T) {
	policy := PollPolicy{Interval: time.Millisecond, MaxAttempts: 10}

	job, err := Poll(context.Background(), policy, func(ctx context.Context) (*Job, error) {
		return &Job{ID: "p1", Status: StatusFailed, Error: "NSFW content detected"}, nil
	})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("job.Status = %q, want %q", job.Status, StatusFailed)
	}
	if job.Error != "NSFW content detected" {
		t.Errorf("job.Error = %q, want provider error detail", job.Error)
	}
}
