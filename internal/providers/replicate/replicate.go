// Package replicate implements the providers.Provider interface against the
// Replicate predictions API using the raw create-then-poll HTTP flow.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brandforge/gen-server/internal/providers"
	"github.com/brandforge/gen-server/internal/utils/jsonutil"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.replicate.com/v1"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	policy     providers.PollPolicy
	logger     *zap.Logger
}

type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  any    `json:"error,omitempty"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

type predictionRequest struct {
	Input map[string]any `json:"input"`
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the client
// at a stub server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithPollPolicy(policy providers.PollPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     providers.DefaultPollPolicy(),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string {
	return "replicate"
}

// RunModel creates a prediction for the model and polls its status URL until
// the prediction is terminal. Terminal failed/canceled states are reported
// as *providers.ProviderError carrying Replicate's own error detail.
func (c *Client) RunModel(ctx context.Context, modelID string, input providers.Input) (*providers.Job, error) {
	pred, err := c.createPrediction(ctx, modelID, input)
	if err != nil {
		return nil, &providers.ProviderError{Provider: c.Name(), Model: modelID, Err: err}
	}

	c.logger.Info("Replicate prediction created",
		zap.String("model", modelID),
		zap.String("prediction_id", pred.ID))

	start := time.Now()
	lastStatus := ""

	job, err := providers.Poll(ctx, c.policy, func(ctx context.Context) (*providers.Job, error) {
		current, err := c.getPrediction(ctx, pred.URLs.Get)
		if err != nil {
			return nil, &providers.ProviderError{Provider: c.Name(), Model: modelID, Err: err}
		}

		if current.Status != lastStatus {
			c.logger.Debug("Replicate status changed",
				zap.String("prediction_id", current.ID),
				zap.String("status", current.Status),
				zap.Duration("elapsed", time.Since(start).Round(time.Second)))
			lastStatus = current.Status
		}

		return toJob(current), nil
	})
	if err != nil {
		return nil, err
	}

	if job.Status != providers.StatusSucceeded {
		return nil, &providers.ProviderError{
			Provider: c.Name(),
			Model:    modelID,
			Detail:   fmt.Sprintf("prediction %s: %s", job.Status, job.Error),
		}
	}

	c.logger.Info("Replicate prediction completed",
		zap.String("prediction_id", job.ID),
		zap.Duration("elapsed", time.Since(start).Round(time.Second)))

	return job, nil
}

func (c *Client) createPrediction(ctx context.Context, modelID string, input providers.Input) (*prediction, error) {
	params, err := jsonutil.StructToMap(input)
	if err != nil {
		return nil, fmt.Errorf("error building input params: %w", err)
	}

	body, err := c.doRequest(ctx, "POST",
		fmt.Sprintf("%s/models/%s/predictions", c.baseURL, modelID),
		predictionRequest{Input: params})
	if err != nil {
		return nil, err
	}

	var pred prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return &pred, nil
}

func (c *Client) getPrediction(ctx context.Context, getURL string) (*prediction, error) {
	body, err := c.doRequest(ctx, "GET", getURL, nil)
	if err != nil {
		return nil, err
	}

	var pred prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return &pred, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, data any) ([]byte, error) {
	var requestBody io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request: %w", err)
		}
		requestBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, body)
	}

	return body, nil
}

func toJob(pred *prediction) *providers.Job {
	return &providers.Job{
		ID:     pred.ID,
		Status: normalizeStatus(pred.Status),
		Output: pred.Output,
		Error:  errorDetail(pred.Error),
	}
}

// Replicate reports "starting" before a prediction is picked up; everything
// else already matches our status vocabulary.
func normalizeStatus(status string) string {
	if status == "starting" {
		return providers.StatusQueued
	}
	return status
}

func errorDetail(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	detail, _ := json.Marshal(v)
	return string(detail)
}
