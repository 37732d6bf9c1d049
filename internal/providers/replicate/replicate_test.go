package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brandforge/gen-server/internal/providers"

	"go.uber.org/zap"
)

func testPolicy() providers.PollPolicy {
	return providers.PollPolicy{Interval: time.Millisecond, MaxAttempts: 20}
}

// newStubServer serves the create call and a polled status URL. statuses is
// the sequence of statuses returned by successive GET calls.
func newStubServer(t *testing.T, statuses []string, finalOutput any, finalError any) (*httptest.Server, *int32) {
	t.Helper()

	var polls int32
	mux := http.NewServeMux()

	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "p1",
			"status": "starting",
			"urls": map[string]string{
				"get": fmt.Sprintf("http://%s/predictions/p1", r.Host),
			},
		})
	})

	mux.HandleFunc("/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		i := atomic.AddInt32(&polls, 1) - 1
		status := statuses[len(statuses)-1]
		if int(i) < len(statuses) {
			status = statuses[i]
		}

		resp := map[string]any{"id": "p1", "status": status}
		if status == "succeeded" {
			resp["output"] = finalOutput
		}
		if finalError != nil && (status == "failed" || status == "canceled") {
			resp["error"] = finalError
		}
		json.NewEncoder(w).Encode(resp)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &polls
}

func TestRunModelCreatesAndPolls(t *testing.T) {
	server, polls := newStubServer(t,
		[]string{"starting", "processing", "succeeded"},
		[]any{"http://x/img.svg"}, nil)

	client := NewClient("test-key", zap.NewNop(), WithBaseURL(server.URL), WithPollPolicy(testPolicy()))

	job, err := client.RunModel(context.Background(), "recraft-ai/recraft-v3-svg", providers.Input{Prompt: "red fox logo"})
	if err != nil {
		t.Fatalf("RunModel() error = %v", err)
	}

	if job.Status != providers.StatusSucceeded {
		t.Errorf("job.Status = %q, want succeeded", job.Status)
	}
	output, ok := job.Output.([]any)
	if !ok || len(output) != 1 || output[0] != "http://x/img.svg" {
		t.Errorf("job.Output = %v, want the provider's output array", job.Output)
	}
	if *polls != 3 {
		t.Errorf("status polled %d times, want 3", *polls)
	}
}

func TestRunModelFailedPrediction(t *testing.T) {
	server, _ := newStubServer(t, []string{"processing", "failed"}, nil, "CUDA out of memory")

	client := NewClient("test-key", zap.NewNop(), WithBaseURL(server.URL), WithPollPolicy(testPolicy()))

	_, err := client.RunModel(context.Background(), "black-forest-labs/flux-schnell", providers.Input{Prompt: "red fox"})

	var providerErr *providers.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("RunModel() error = %v, want *ProviderError", err)
	}
	if providerErr.Provider != "replicate" {
		t.Errorf("Provider = %q, want replicate", providerErr.Provider)
	}
	if !strings.Contains(providerErr.Detail, "CUDA out of memory") {
		t.Errorf("Detail = %q, want the provider's own error detail", providerErr.Detail)
	}
}

func TestRunModelNeverTerminalTimesOut(t *testing.T) {
	server, polls := newStubServer(t, []string{"processing"}, nil, nil)

	policy := providers.PollPolicy{Interval: time.Millisecond, MaxAttempts: 5}
	client := NewClient("test-key", zap.NewNop(), WithBaseURL(server.URL), WithPollPolicy(policy))

	_, err := client.RunModel(context.Background(), "recraft-ai/recraft-v3-svg", providers.Input{Prompt: "fox"})
	if !errors.Is(err, providers.ErrProviderTimeout) {
		t.Fatalf("RunModel() error = %v, want ErrProviderTimeout", err)
	}
	if *polls != 5 {
		t.Errorf("status polled %d times, want exactly the attempt bound", *polls)
	}
}

func TestRunModelCreateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", zap.NewNop(), WithBaseURL(server.URL), WithPollPolicy(testPolicy()))

	_, err := client.RunModel(context.Background(), "recraft-ai/recraft-v3-svg", providers.Input{Prompt: "fox"})

	var providerErr *providers.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("RunModel() error = %v, want *ProviderError", err)
	}
}
