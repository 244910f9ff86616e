package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests without a valid bearer token with 401 and
// stores the identity of accepted ones in the request context.
// A nil authenticator disables the check.
func Middleware(a *Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if a == nil {
			return next
		}
		return func(c echo.Context) error {
			claims, err := a.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				slog.Debug("auth: request rejected", "path", c.Path(), "error", err)
				message := "Invalid token"
				switch {
				case errors.Is(err, ErrMissingToken):
					message = "Not authenticated"
				case errors.Is(err, ErrTokenExpired):
					message = "Token expired"
				}
				return echo.NewHTTPError(http.StatusUnauthorized, message)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(SetUserClaimsInContext(req.Context(), claims)))
			return next(c)
		}
	}
}
