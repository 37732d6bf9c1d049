// Package openaiimages adapts the OpenAI Images API to the providers
// interface. Unlike the predictions flow, the SDK call blocks until the
// image is ready, so RunModel returns a terminal job directly.
package openaiimages

import (
	"context"
	"fmt"

	"github.com/brandforge/gen-server/internal/providers"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Client struct {
	client *openai.Client
	logger *zap.Logger
}

func NewClient(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		logger: logger,
	}
}

// NewClientWithConfig is used by tests to point the SDK at a stub server.
func NewClientWithConfig(cfg openai.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) RunModel(ctx context.Context, modelID string, input providers.Input) (*providers.Job, error) {
	if input.ReferenceImage != "" {
		// The images endpoint takes no reference image; reporting this as a
		// provider failure lets the orchestrator fall back to a model that
		// does image-to-image.
		return nil, &providers.ProviderError{
			Provider: c.Name(),
			Model:    modelID,
			Detail:   "reference images are not supported by the images endpoint",
		}
	}

	size := input.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	c.logger.Info("Starting OpenAI image generation",
		zap.String("model", modelID),
		zap.String("size", size))

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         input.Prompt,
		Model:          modelID,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, &providers.ProviderError{Provider: c.Name(), Model: modelID, Err: err}
	}

	if len(resp.Data) == 0 {
		return nil, &providers.ProviderError{
			Provider: c.Name(),
			Model:    modelID,
			Detail:   "response contained no image data",
		}
	}

	// Explicit mapping of the known response shape. A b64_json payload is
	// converted to a data URI so downstream code only sees one reference
	// format.
	datum := resp.Data[0]
	var ref string
	switch {
	case datum.URL != "":
		ref = datum.URL
	case datum.B64JSON != "":
		ref = fmt.Sprintf("data:image/png;base64,%s", datum.B64JSON)
	default:
		return nil, &providers.ProviderError{
			Provider: c.Name(),
			Model:    modelID,
			Detail:   "response contained neither url nor b64_json",
		}
	}

	return &providers.Job{
		ID:     fmt.Sprintf("openai-%d", resp.Created),
		Status: providers.StatusSucceeded,
		Output: ref,
	}, nil
}
