package server

import (
	"github.com/brandforge/gen-server/internal/api"
	"github.com/brandforge/gen-server/internal/api/middleware"
	"github.com/brandforge/gen-server/internal/app"
	"github.com/gin-gonic/gin"
)

func (s *Server) SetupRoutes(app *app.App) {
	s.ginEngine.GET("/health", handlerWrapper(app, api.HealthCheck))

	// Not an API, just a simple file server endpoint
	s.ginEngine.GET("/file/:filename", handlerWrapper(app, api.GetFile))

	apiGroup := s.ginEngine.Group("/api")

	if limit := app.Config().Quota.DailyLimit; limit > 0 {
		tracker := middleware.NewQuotaTracker(limit)
		apiGroup.Use(middleware.DailyQuotaMiddleware(tracker))
	}

	apiGroup.POST("/upload", handlerWrapper(app, api.UploadFileHandler))
	apiGroup.POST("/generate", handlerWrapper(app, api.GenerateImageSync))
	apiGroup.POST("/generate_async", handlerWrapper(app, api.GenerateImageAsync))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
