package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type processQueryRequest struct {
	Query string `json:"query"`
}

// ProcessQuery answers a natural-language query with a response envelope.
// Failures inside the pipeline surface as an apology narrative, never as an
// error status.
func (s *APIV1Service) ProcessQuery(c echo.Context) error {
	var req processQueryRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query must not be empty")
	}
	if s.QueryHandler == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "query service not available")
	}

	env := s.QueryHandler.Handle(c.Request().Context(), req.Query)
	slog.Debug("api: query processed",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"shape", env.VisualizationType,
	)
	return c.JSON(http.StatusOK, env)
}

// decodeStrict binds a JSON body, rejecting unknown fields and trailing data.
func decodeStrict(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if dec.More() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
