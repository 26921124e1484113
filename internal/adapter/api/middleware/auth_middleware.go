package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"dealvault/pkg/errors"
	"dealvault/pkg/response"
)

// TokenVerifier resolves a bearer credential to a caller identity. Satisfied
// by the Firebase auth client.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate rejects requests without a credential with 401 and requests
// whose credential fails verification with 403, then stores the caller id
// under "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, errors.Forbidden("Invalid or expired token", err))
		}

		c.Set("uid", uid)

		return next(c)
	}
}
