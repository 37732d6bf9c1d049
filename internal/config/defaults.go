package config

import "errors"

const DefaultForgeHome = "~/.forge"

// Default model identifiers. All of these can be overridden from
// config.yaml or FORGE_* environment variables.
const (
	DefaultVectorModel         = "recraft-ai/recraft-v3-svg"
	DefaultVectorFallbackModel = "recraft-ai/recraft-20b-svg"
	DefaultRasterModel         = "dall-e-3"
	DefaultRasterFallbackModel = "black-forest-labs/flux-schnell"
	DefaultRefineModel         = "gpt-4o-mini"
)

const DefaultMaxBodySize = 16 << 20 // 16 MiB

var (
	ErrForgeHomeNotSet       = errors.New("forge home directory is not set")
	ErrForgeHomeExpandFailed = errors.New("failed to expand forge home directory")
)

func applyDefaults(cfg *Config) {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.FilesystemType == "" {
		cfg.FilesystemType = FilesystemLocal
	}

	if cfg.Replicate == nil {
		cfg.Replicate = &ReplicateConfig{}
	}
	if cfg.Replicate.VectorModel == "" {
		cfg.Replicate.VectorModel = DefaultVectorModel
	}
	if cfg.Replicate.VectorFallbackModel == "" {
		cfg.Replicate.VectorFallbackModel = DefaultVectorFallbackModel
	}
	if cfg.Replicate.RasterFallbackModel == "" {
		cfg.Replicate.RasterFallbackModel = DefaultRasterFallbackModel
	}

	if cfg.OpenAI == nil {
		cfg.OpenAI = &OpenAIConfig{}
	}
	if cfg.OpenAI.ImageModel == "" {
		cfg.OpenAI.ImageModel = DefaultRasterModel
	}
	if cfg.OpenAI.RefineModel == "" {
		cfg.OpenAI.RefineModel = DefaultRefineModel
	}

	if cfg.Quota == nil {
		cfg.Quota = &QuotaConfig{}
	}
}
