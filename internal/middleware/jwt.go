package middleware

import (
	"context"
	"net/http"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for protected routes. Token
// validation is delegated to the auth service so revoked sessions are
// rejected, and the user identity lands on the request context.
func JWTConfig(authSvc services.AuthService) echojwt.Config {
	return echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := authSvc.ValidateToken(c.Request().Context(), auth)
			if err != nil {
				return nil, err
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return nil, err
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.IsAdminKey, claims.IsAdmin)
			c.SetRequest(c.Request().WithContext(ctx))

			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}

// AdminOnly rejects requests whose token lacks the admin claim. Must run
// after the JWT middleware.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !common.IsAdminFromContext(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
