package middleware

import (
	"net/http"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// QuotaMiddleware consumes one unit of the given usage operation before the
// handler runs. Denials surface the usage core's reason verbatim.
func QuotaMiddleware(usageSvc services.UsageService, operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := common.GetUserIDFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
			}

			decision, err := usageSvc.ConsumeCapacity(c.Request().Context(), userID, operation, nil)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Usage accounting failed")
			}
			if !decision.Allowed {
				return common.SendLimitError(c, decision.Reason)
			}

			return next(c)
		}
	}
}
