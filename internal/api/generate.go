package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/brandforge/gen-server/internal/app"
	"github.com/brandforge/gen-server/internal/providers"
	"github.com/brandforge/gen-server/internal/types"
	"github.com/brandforge/gen-server/internal/utils/webhookutil"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HealthCheck reports readiness plus the configured model pair so a front
// end can display what it is talking to.
func HealthCheck(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	cfg := app.Config()

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"vectorModel": cfg.Replicate.VectorModel,
		"rasterModel": cfg.OpenAI.ImageModel,
	})
}

func GenerateImageSync(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	params, err := bindGenerateParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.GenerationResponse{OK: false, Error: err.Error()})
		return
	}

	app.Logger.Info("Starting generation",
		zap.String("request_id", params.ID),
		zap.String("target", params.Target))

	result, err := app.Generator().Generate(c.Request.Context(), params)
	if err != nil {
		status, message := mapGenerationError(err)
		app.Logger.Error("Generation failed",
			zap.String("request_id", params.ID),
			zap.Error(err))
		c.JSON(status, types.GenerationResponse{OK: false, Error: message})
		return
	}

	c.JSON(http.StatusOK, types.GenerationResponse{
		OK:         true,
		ID:         params.ID,
		Owner:      result.Owner,
		Customer:   result.Customer,
		Provenance: result.Provenance,
	})
}

func GenerateImageAsync(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	params, err := bindGenerateParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.GenerationResponse{OK: false, Error: err.Error()})
		return
	}

	if params.WebhookUrl == "" {
		c.JSON(http.StatusBadRequest, types.GenerationResponse{OK: false, Error: "webhook_url is required"})
		return
	}

	go generateAndNotify(app, params)

	c.JSON(http.StatusOK, types.GenerationResponse{OK: true, ID: params.ID, Status: "pending"})
}

func generateAndNotify(app *app.App, params *types.GenerateParams) {
	ctx, cancel := context.WithTimeout(app.Context(), 5*time.Minute)
	defer cancel()

	result, err := app.Generator().Generate(ctx, params)
	if err != nil {
		_, message := mapGenerationError(err)
		app.Logger.Error("Async generation failed",
			zap.String("request_id", params.ID),
			zap.Error(err))

		data := types.GenerationResponse{OK: false, ID: params.ID, Status: "failed", Error: message}
		if err := webhookutil.InvokeWithRetries(ctx, params.WebhookUrl, data, 3); err != nil {
			app.Logger.Error("Failed to deliver webhook", zap.Error(err))
		}
		return
	}

	data := types.GenerationResponse{
		OK:         true,
		ID:         params.ID,
		Status:     "completed",
		Owner:      result.Owner,
		Customer:   result.Customer,
		Provenance: result.Provenance,
	}
	if err := webhookutil.InvokeWithRetries(ctx, params.WebhookUrl, data, 3); err != nil {
		app.Logger.Error("Failed to deliver webhook", zap.Error(err))
	}
}

// bindGenerateParams accepts either a JSON body or a multipart form with an
// uploaded reference image, and normalizes both into GenerateParams.
func bindGenerateParams(c *gin.Context) (*types.GenerateParams, error) {
	params := &types.GenerateParams{}

	if isMultipart(c) {
		if err := bindMultipart(c, params); err != nil {
			return nil, err
		}
	} else if err := c.BindJSON(params); err != nil {
		return nil, fmt.Errorf("failed to parse request body")
	}

	if err := params.Normalize(); err != nil {
		return nil, err
	}

	params.ID = uuid.NewString()
	return params, nil
}

func isMultipart(c *gin.Context) bool {
	contentType := c.ContentType()
	return contentType == "multipart/form-data"
}

func bindMultipart(c *gin.Context, params *types.GenerateParams) error {
	params.Prompt = c.PostForm("prompt")
	params.Target = c.PostForm("target")
	params.WebhookUrl = c.PostForm("webhook_url")

	if size := c.PostForm("size"); size != "" {
		params.Params = &types.GenerationKnobs{Size: size}
	}
	if seed := c.PostForm("seed"); seed != "" {
		value, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed value")
		}
		if params.Params == nil {
			params.Params = &types.GenerationKnobs{}
		}
		params.Params.Seed = value
	}

	for _, field := range []string{"reference", "image", "file"} {
		file, err := c.FormFile(field)
		if err != nil {
			continue
		}

		dataURI, err := fileToDataURI(file)
		if err != nil {
			return err
		}
		params.ReferenceImage = dataURI
		break
	}

	return nil
}

func fileToDataURI(file *multipart.FileHeader) (string, error) {
	content, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file")
	}
	defer content.Close()

	fileBytes, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file")
	}

	mtype := mimetype.Detect(fileBytes).String()
	return fmt.Sprintf("data:%s;base64,%s", mtype, base64.StdEncoding.EncodeToString(fileBytes)), nil
}

// mapGenerationError converts the error taxonomy into an HTTP status and a
// caller-safe message. Provider exhaustion maps to 502; anything else
// unexpected maps to 500.
func mapGenerationError(err error) (int, string) {
	// err may join one AllProvidersFailed per requested path; the full text
	// keeps every path's diagnostics in the response.
	var allFailed *providers.AllProvidersFailed
	if errors.As(err, &allFailed) {
		return http.StatusBadGateway, err.Error()
	}

	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadGateway, providerErr.Error()
	}

	if errors.Is(err, providers.ErrProviderTimeout) {
		return http.StatusBadGateway, err.Error()
	}

	if errors.Is(err, types.ErrInvalidRequest) {
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, "unable to complete image generation"
}
