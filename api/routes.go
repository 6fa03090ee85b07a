package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/ricardag/mailmirror/api/handlers"
	"github.com/ricardag/mailmirror/api/middleware"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(s, repos)

	// Health check and status endpoints (no custom context needed)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(repos))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILMIRROR-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware("mailmirror"))
	api.Use(middleware.TracingMiddleware())
	{
		accounts := api.Group("/accounts")
		{
			accounts.GET("", apiHandlers.Accounts.List())
			accounts.POST("", apiHandlers.Accounts.Create())
			accounts.GET("/:id", apiHandlers.Accounts.Get())
			accounts.PUT("/:id", apiHandlers.Accounts.Update())
			accounts.DELETE("/:id", apiHandlers.Accounts.Delete())

			accounts.PUT("/:id/credentials/imap", apiHandlers.Accounts.SetIMAPCredentials())
			accounts.PUT("/:id/credentials/oauth", apiHandlers.Accounts.SetOAuthToken())

			accounts.POST("/:id/sync", apiHandlers.Accounts.Sync())

			accounts.GET("/:id/folders", apiHandlers.Folders.List())
			accounts.GET("/:id/folders/tree", apiHandlers.Folders.Tree())

			accounts.GET("/:id/messages", apiHandlers.Messages.List())
			accounts.GET("/:id/messages/:messageId", apiHandlers.Messages.Get())
			accounts.GET("/:id/messages/:messageId/attachments/:attachmentId", apiHandlers.Messages.DownloadAttachment())
		}
	}
}
