package webhookutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func contains(arr []int, value int) bool {
	for _, v := range arr {
		if v == value {
			return true
		}
	}
	return false
}

func Invoke[T any](ctx context.Context, url string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	successStatuses := []int{http.StatusOK, http.StatusCreated, http.StatusAccepted}
	if !contains(successStatuses, resp.StatusCode) {
		return fmt.Errorf("webhook returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}

var initialBackoff = time.Second

// InvokeWithRetries retries failed deliveries with doubling backoff. A
// canceled context stops the schedule immediately instead of sleeping it
// out.
func InvokeWithRetries[T any](ctx context.Context, url string, data T, maxAttempts int) error {
	var err error
	backOff := initialBackoff
	for i := 0; i < maxAttempts; i++ {
		err = Invoke(ctx, url, data)
		if err == nil {
			return nil
		}
		if i == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backOff):
			backOff *= 2
		}
	}

	return err
}
