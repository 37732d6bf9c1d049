package generation

import (
	"context"

	"github.com/brandforge/gen-server/internal/providers"

	"go.uber.org/zap"
)

// Attempt is one provider/model combination in a generation path's fallback
// chain. Label is recorded as provenance when the attempt wins.
type Attempt struct {
	Label string
	Run   func(ctx context.Context) (string, error)
}

// runWithFallback tries each attempt in order and returns the first image
// reference produced, together with the winning attempt's label. Every kind
// of failure -- provider error, timeout, missing image -- triggers the next
// attempt; the caller only sees an error once the whole chain is exhausted.
func runWithFallback(ctx context.Context, logger *zap.Logger, path string, attempts []Attempt) (string, string, error) {
	var errs []error

	for i, attempt := range attempts {
		ref, err := attempt.Run(ctx)
		if err != nil {
			logger.Warn("Generation attempt failed",
				zap.String("path", path),
				zap.String("attempt", attempt.Label),
				zap.Int("remaining_fallbacks", len(attempts)-i-1),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}

		return ref, attempt.Label, nil
	}

	return "", "", &providers.AllProvidersFailed{Path: path, Errors: errs}
}
