package router

import (
	"github.com/labstack/echo/v4"

	"dealvault/internal/adapter/api/handler"
	"dealvault/internal/adapter/api/middleware"
)

func SetupDocumentRouter(e *echo.Echo, documentHandler *handler.DocumentHandler, authMiddleware *middleware.AuthMiddleware, rateLimitMiddleware *middleware.RateLimitMiddleware) {
	e.POST("/upload", documentHandler.Upload,
		authMiddleware.Authenticate, rateLimitMiddleware.Limit("upload"))
	e.GET("/download/:dealId/:fileId", documentHandler.Download,
		authMiddleware.Authenticate, rateLimitMiddleware.Limit("download"))
	e.GET("/my-deals", documentHandler.MyDocuments,
		authMiddleware.Authenticate, rateLimitMiddleware.Limit("list"))
}
