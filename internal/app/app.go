package app

import (
	"context"
	"fmt"

	"github.com/brandforge/gen-server/internal/config"
	"github.com/brandforge/gen-server/internal/providers/openaiimages"
	"github.com/brandforge/gen-server/internal/providers/replicate"
	"github.com/brandforge/gen-server/internal/services/filestorage"
	"github.com/brandforge/gen-server/internal/services/fileuploader"
	"github.com/brandforge/gen-server/internal/services/generation"
	"github.com/brandforge/gen-server/internal/services/promptrefiner"
	"github.com/brandforge/gen-server/pkg/logger"

	"go.uber.org/zap"
)

type App struct {
	config       *config.Config
	ctx          context.Context
	cancelFunc   context.CancelFunc
	fileuploader *fileuploader.Uploader
	generator    *generation.Service

	Logger *zap.Logger
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

func WithFileUploader() OptionFunc {
	return func(app *App) error {
		storage, err := filestorage.NewFileStorage(app.Config())
		if err != nil {
			return err
		}
		app.fileuploader = fileuploader.NewFileUploader(storage, 10)
		return nil
	}
}

// WithGenerator wires the provider adapters and the fallback orchestrator.
// Must run after WithFileUploader when output persistence is enabled.
func WithGenerator() OptionFunc {
	return func(app *App) error {
		cfg := app.config
		if cfg.Replicate == nil || cfg.Replicate.APIKey == "" {
			return fmt.Errorf("replicate API key is not configured")
		}
		if cfg.OpenAI == nil || cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("openAI API key is not configured")
		}

		replicateClient := replicate.NewClient(cfg.Replicate.APIKey, app.Logger)
		openaiClient := openaiimages.NewClient(cfg.OpenAI.APIKey, app.Logger)

		opts := []generation.Option{}
		if refiner, err := promptrefiner.NewRefiner(cfg.OpenAI.APIKey, cfg.OpenAI.RefineModel, app.Logger); err == nil {
			opts = append(opts, generation.WithRefiner(refiner))
		}
		if cfg.PersistOutputs && app.fileuploader != nil {
			opts = append(opts, generation.WithUploader(app.fileuploader))
		}

		app.generator = generation.NewService(cfg, app.Logger, replicateClient, openaiClient, replicateClient, opts...)
		return nil
	}
}

func NewApp(config *config.Config, options ...OptionFunc) (*App, error) {
	logger, err := logger.NewLogger(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     config,
		Logger:     logger,
		cancelFunc: cancel,
	}

	for _, opt := range options {
		if err := opt(app); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.fileuploader != nil {
		app.fileuploader.Stop()
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) Uploader() *fileuploader.Uploader {
	return app.fileuploader
}

func (app *App) Generator() *generation.Service {
	return app.generator
}

// SetGenerator replaces the orchestrator. Tests use this to install stub
// providers.
func (app *App) SetGenerator(generator *generation.Service) {
	app.generator = generator
}
