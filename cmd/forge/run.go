package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brandforge/gen-server/internal/app"
	"github.com/brandforge/gen-server/internal/config"
	"github.com/brandforge/gen-server/internal/server"
	"github.com/brandforge/gen-server/internal/utils/randutil"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the brandforge gen-server",
	RunE:  runApp,
}

func init() {
	flags := runCmd.Flags()

	flags.Int("port", 8881, "Port to run the server on")
	flags.String("host", "localhost", "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.String("filesystem-type", "local", "Filesystem type: 'local' or 's3'")
	flags.Bool("persist-outputs", false, "Persist inline generated images to file storage")
	flags.String("public-dir", "", "Path where static front-end files should be served from")

	flags.String("replicate-api-key", "", "Replicate API key")
	flags.String("openai-api-key", "", "OpenAI API key")

	flags.String("s3-access-key", "", "S3 access key")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("s3-region-name", "", "S3 region name")
	flags.String("s3-bucket-name", "", "S3 bucket name")
	flags.String("s3-folder", "", "S3 folder")
	flags.String("s3-public-url", "", "Public URL for S3 files")
	flags.String("s3-endpoint-url", "", "S3 endpoint URL")

	viper.BindPFlags(flags)

	viper.BindPFlag("replicate.api_key", flags.Lookup("replicate-api-key"))
	viper.BindPFlag("openai.api_key", flags.Lookup("openai-api-key"))
	viper.BindPFlag("s3.access_key", flags.Lookup("s3-access-key"))
	viper.BindPFlag("s3.secret_key", flags.Lookup("s3-secret-key"))
	viper.BindPFlag("s3.region_name", flags.Lookup("s3-region-name"))
	viper.BindPFlag("s3.bucket_name", flags.Lookup("s3-bucket-name"))
	viper.BindPFlag("s3.folder", flags.Lookup("s3-folder"))
	viper.BindPFlag("s3.public_url", flags.Lookup("s3-public-url"))
	viper.BindPFlag("s3.endpoint_url", flags.Lookup("s3-endpoint-url"))
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()
	if err := config.CreateForgeHomeDirs(cfg.ForgeHome); err != nil {
		return err
	}

	application, err := app.NewApp(cfg,
		app.WithFileUploader(),
		app.WithGenerator(),
	)
	if err != nil {
		return err
	}
	defer application.Close()

	application.Logger.Info("Configured providers",
		zap.String("vector_model", cfg.Replicate.VectorModel),
		zap.String("raster_model", cfg.OpenAI.ImageModel),
		zap.String("replicate_key", randutil.MaskString(cfg.Replicate.APIKey, 4, 2)),
		zap.String("openai_key", randutil.MaskString(cfg.OpenAI.APIKey, 4, 2)))

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	srv.SetupRoutes(application)

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	application.Logger.Info("Server started", zap.String("addr", cfg.Host), zap.Int("port", cfg.Port))

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-signalc:
		return srv.Stop(application.Context())
	}
}
