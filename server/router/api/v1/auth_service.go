package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wealthsense/server/auth"
)

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// VerifyToken checks a token supplied in the body and returns its identity.
func (s *APIV1Service) VerifyToken(c echo.Context) error {
	if s.Authenticator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "token verification is not configured")
	}

	var req verifyTokenRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Token) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token must not be empty")
	}

	claims, err := s.Authenticator.Verify(strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return c.JSON(http.StatusOK, &identityResponse{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	})
}
