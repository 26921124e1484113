package router

import (
	"github.com/labstack/echo/v4"

	"dealvault/internal/adapter/api/handler"
	"dealvault/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, documentHandler *handler.DocumentHandler, authMiddleware *middleware.AuthMiddleware, rateLimitMiddleware *middleware.RateLimitMiddleware) {
	SetupDocumentRouter(e, documentHandler, authMiddleware, rateLimitMiddleware)
	SetupHealthRouter(e)
}
