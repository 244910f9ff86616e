package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wealthsense/ai/query"
	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/server/auth"
	"github.com/hrygo/wealthsense/store"
)

// QueryHandler answers natural-language queries. *query.Orchestrator satisfies it.
type QueryHandler interface {
	Handle(ctx context.Context, query string) *query.Envelope
}

// APIV1Service serves the JSON API consumed by the dashboard frontend.
type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	QueryHandler  QueryHandler
	Authenticator *auth.Authenticator // nil disables identity checks
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, handler QueryHandler, authenticator *auth.Authenticator) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		QueryHandler:  handler,
		Authenticator: authenticator,
	}
}

// RegisterRoutes mounts the API on e. queryMiddleware is applied to the
// query endpoint only, after the identity check.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo, queryMiddleware ...echo.MiddlewareFunc) {
	e.GET("/", s.Root)
	e.POST("/api/auth/verify", s.VerifyToken)

	api := e.Group("/api", auth.Middleware(s.Authenticator))
	api.POST("/query/process", s.ProcessQuery, queryMiddleware...)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/stats", s.GetDashboardStats)
	dashboard.GET("/portfolio-chart", s.GetPortfolioChart)
	dashboard.GET("/top-clients", s.GetTopClients)
	dashboard.GET("/recent-transactions", s.GetRecentTransactions)
}

// Root reports that the API is up.
func (*APIV1Service) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Wealth Portfolio RAG Agent API is running"})
}
