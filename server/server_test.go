package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wealthsense/ai/metrics"
	"github.com/hrygo/wealthsense/ai/query"
	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/storetest"
)

type staticHandler struct{}

func (staticHandler) Handle(context.Context, string) *query.Envelope {
	return &query.Envelope{Response: "ok", VisualizationType: query.ShapeText}
}

func newTestServer(t *testing.T, p *profile.Profile) *Server {
	t.Helper()
	if p.CORSOrigins == nil {
		p.CORSOrigins = profile.DefaultCORSOrigins
	}
	exporter := metrics.NewPrometheusExporter(metrics.Config{})
	st := store.New(nil, storetest.NewMemoryDocuments(storetest.SampleClients()), p)
	s, err := NewServer(context.Background(), p, st, staticHandler{}, exporter)
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postQuery(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/query/process", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(context.Background(), nil, store.New(nil, nil, nil), nil, nil)
	require.Error(t, err)
	_, err = NewServer(context.Background(), &profile.Profile{}, nil, nil, nil)
	require.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev"})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wealthsense_query_active")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestNoMetricsHandler(t *testing.T) {
	p := &profile.Profile{Mode: "dev", CORSOrigins: profile.DefaultCORSOrigins}
	s, err := NewServer(context.Background(), p, store.New(nil, nil, p), staticHandler{}, nil)
	require.NoError(t, err)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev"})

	req := httptest.NewRequest(http.MethodOptions, "/api/query/process", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := serve(s, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodOptions, "/api/query/process", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec = serve(s, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestIdentityRequiredWhenSecretSet(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "prod", JWTSecret: "secret"})
	rec := serve(s, postQuery(`{"query":"hello"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueryRateLimit(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev", QueryRateLimit: 1})

	rec := serve(s, postQuery(`{"query":"hello"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"ok","data":null,"visualizationType":"text"}`, rec.Body.String())

	rec = serve(s, postQuery(`{"query":"hello"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not limited.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryRateLimitDisabled(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev"})
	for i := 0; i < 5; i++ {
		rec := serve(s, postQuery(`{"query":"hello"}`))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAddress(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 8000})
	assert.Equal(t, "127.0.0.1:8000", s.Address())

	s = newTestServer(t, &profile.Profile{Mode: "dev", Port: 8000})
	assert.Equal(t, ":8000", s.Address())
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 0})
	require.NoError(t, s.Start(context.Background()))
	s.Shutdown(context.Background())
}
