// Package generation orchestrates the two generation paths: the vector
// ("owner") path producing an SVG illustration and the raster ("customer")
// path producing a photorealistic bitmap. Each path is a primary provider
// plus an ordered fallback chain; the primary is always attempted first and
// a caller never sees its failure unless every fallback fails too.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/brandforge/gen-server/internal/config"
	"github.com/brandforge/gen-server/internal/providers"
	"github.com/brandforge/gen-server/internal/services/fileuploader"
	"github.com/brandforge/gen-server/internal/types"
	"github.com/brandforge/gen-server/internal/utils/imageref"

	"go.uber.org/zap"
)

const ProvenanceEcho = "echo"

// Refiner rewords a prompt for a fallback attempt. Best effort; it must
// return a usable prompt even when refinement fails.
type Refiner interface {
	Refine(ctx context.Context, prompt string) string
}

type Service struct {
	cfg            *config.Config
	logger         *zap.Logger
	vector         providers.Provider
	raster         providers.Provider
	rasterFallback providers.Provider
	refiner        Refiner
	uploader       *fileuploader.Uploader
}

type Option func(*Service)

// WithRefiner enables prompt rewording before fallback attempts.
func WithRefiner(refiner Refiner) Option {
	return func(s *Service) {
		s.refiner = refiner
	}
}

// WithUploader enables persistence of inline outputs (data URIs, raw SVG
// text) to file storage, so the caller gets a stable public URL instead of
// a megabyte of base64.
func WithUploader(uploader *fileuploader.Uploader) Option {
	return func(s *Service) {
		s.uploader = uploader
	}
}

// NewService wires the orchestrator. vector runs SVG-capable models (both
// the primary and its fallback), raster is the primary bitmap provider and
// rasterFallback the diffusion model attempted after it.
func NewService(cfg *config.Config, logger *zap.Logger, vector, raster, rasterFallback providers.Provider, opts ...Option) *Service {
	s := &Service{
		cfg:            cfg,
		logger:         logger,
		vector:         vector,
		raster:         raster,
		rasterFallback: rasterFallback,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type pathResult struct {
	target     string
	ref        string
	provenance string
	err        error
}

// Generate runs the requested generation paths and assembles the result.
// The owner and customer paths are independent and run concurrently for
// target "both"; within a path the fallback sequence is strictly
// sequential.
func (s *Service) Generate(ctx context.Context, params *types.GenerateParams) (*types.GenerationResult, error) {
	if params.IsEcho() {
		return &types.GenerationResult{
			Owner:    params.ReferenceImage,
			Customer: params.ReferenceImage,
			Provenance: types.Provenance{
				Owner:    ProvenanceEcho,
				Customer: ProvenanceEcho,
			},
		}, nil
	}

	var targets []string
	switch params.Target {
	case types.TargetOwner:
		targets = []string{types.TargetOwner}
	case types.TargetCustomer:
		targets = []string{types.TargetCustomer}
	default:
		targets = []string{types.TargetOwner, types.TargetCustomer}
	}

	results := make(chan pathResult, len(targets))
	for _, target := range targets {
		go func(target string) {
			var (
				ref, provenance string
				err             error
			)
			if target == types.TargetOwner {
				ref, provenance, err = s.generateVector(ctx, params)
			} else {
				ref, provenance, err = s.generateRaster(ctx, params)
			}
			results <- pathResult{target: target, ref: ref, provenance: provenance, err: err}
		}(target)
	}

	result := &types.GenerationResult{}
	var errs []error
	for range targets {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}

		if r.target == types.TargetOwner {
			result.Owner = r.ref
			result.Provenance.Owner = r.provenance
		} else {
			result.Customer = r.ref
			result.Provenance.Customer = r.provenance
		}
	}

	// The request succeeds as long as at least one requested path produced
	// an image; it fails as a whole only when every path is exhausted. The
	// joined error keeps each path's diagnostics visible to the caller.
	if result.Owner == "" && result.Customer == "" {
		return nil, errors.Join(errs...)
	}

	for _, err := range errs {
		s.logger.Warn("Generation path failed, returning partial result", zap.Error(err))
	}

	return result, nil
}

// generateVector runs the owner path: the primary model converts the
// reference image to an SVG (or generates one from text), and on failure a
// text-to-vector model is attempted with a reworded prompt.
func (s *Service) generateVector(ctx context.Context, params *types.GenerateParams) (string, string, error) {
	knobs := params.Knobs()

	primary := providers.Input{
		Prompt:         params.Prompt,
		ReferenceImage: params.ReferenceImage,
		Size:           knobs.Size,
		Seed:           knobs.Seed,
	}

	attempts := []Attempt{
		{
			Label: fmt.Sprintf("%s/%s", s.vector.Name(), s.cfg.Replicate.VectorModel),
			Run: func(ctx context.Context) (string, error) {
				return s.runAttempt(ctx, s.vector, s.cfg.Replicate.VectorModel, primary)
			},
		},
		{
			Label: fmt.Sprintf("%s/%s", s.vector.Name(), s.cfg.Replicate.VectorFallbackModel),
			Run: func(ctx context.Context) (string, error) {
				// The fallback model is text-to-vector only.
				input := primary
				input.ReferenceImage = ""
				input.Prompt = s.refinePrompt(ctx, params.Prompt)
				return s.runAttempt(ctx, s.vector, s.cfg.Replicate.VectorFallbackModel, input)
			},
		},
	}

	return runWithFallback(ctx, s.logger, "vector", attempts)
}

// generateRaster runs the customer path: the OpenAI-style images API first,
// then the diffusion fallback with an equivalent reworded prompt.
func (s *Service) generateRaster(ctx context.Context, params *types.GenerateParams) (string, string, error) {
	knobs := params.Knobs()

	input := providers.Input{
		Prompt:         params.Prompt,
		ReferenceImage: params.ReferenceImage,
		Size:           knobs.Size,
		Steps:          knobs.Steps,
		Guidance:       knobs.Guidance,
		Strength:       knobs.Strength,
		Seed:           knobs.Seed,
	}

	attempts := []Attempt{
		{
			Label: fmt.Sprintf("%s/%s", s.raster.Name(), s.cfg.OpenAI.ImageModel),
			Run: func(ctx context.Context) (string, error) {
				return s.runAttempt(ctx, s.raster, s.cfg.OpenAI.ImageModel, input)
			},
		},
		{
			Label: fmt.Sprintf("%s/%s", s.rasterFallback.Name(), s.cfg.Replicate.RasterFallbackModel),
			Run: func(ctx context.Context) (string, error) {
				fallbackInput := input
				fallbackInput.Prompt = s.refinePrompt(ctx, params.Prompt)
				return s.runAttempt(ctx, s.rasterFallback, s.cfg.Replicate.RasterFallbackModel, fallbackInput)
			},
		},
	}

	return runWithFallback(ctx, s.logger, "raster", attempts)
}

// runAttempt executes one model and normalizes its output to a single image
// reference. A successful call that yields nothing extractable is still a
// failure from the caller's point of view, so it reports ErrNoImage and the
// chain moves on.
func (s *Service) runAttempt(ctx context.Context, provider providers.Provider, modelID string, input providers.Input) (string, error) {
	job, err := provider.RunModel(ctx, modelID, input)
	if err != nil {
		return "", err
	}

	ref, err := imageref.Extract(job.Output)
	if err != nil {
		return "", fmt.Errorf("%s (%s): %w", provider.Name(), modelID, err)
	}

	return s.persistRef(input.Prompt, ref)
}

func (s *Service) refinePrompt(ctx context.Context, prompt string) string {
	if s.refiner == nil {
		return prompt
	}

	return s.refiner.Refine(ctx, prompt)
}

// persistRef stores inline image payloads to file storage and returns their
// public URL. Plain URLs pass through untouched.
func (s *Service) persistRef(name string, ref string) (string, error) {
	if s.uploader == nil {
		return ref, nil
	}

	var (
		content   []byte
		extension string
	)
	switch {
	case strings.HasPrefix(ref, "data:image/"):
		payload, ext, err := decodeDataURI(ref)
		if err != nil {
			return "", err
		}
		content, extension = payload, ext
	case strings.HasPrefix(strings.TrimSpace(ref), "<svg"):
		content, extension = []byte(ref), ".svg"
	default:
		return ref, nil
	}

	response := make(chan string, 1)
	s.uploader.UploadBytes(content, name, extension, false, response)

	url, ok := <-response
	if !ok || url == "" {
		return "", fmt.Errorf("failed to persist generated image")
	}

	return url, nil
}

func decodeDataURI(ref string) ([]byte, string, error) {
	rest := strings.TrimPrefix(ref, "data:image/")
	mediaType, payload, found := strings.Cut(rest, ";base64,")
	if !found {
		return nil, "", fmt.Errorf("unsupported data URI encoding")
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image payload: %w", err)
	}

	ext := "." + mediaType
	if mediaType == "svg+xml" {
		ext = ".svg"
	}

	return content, ext, nil
}
