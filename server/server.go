// Package server runs the HTTP surface of the service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/server/auth"
	apiv1 "github.com/hrygo/wealthsense/server/router/api/v1"
	"github.com/hrygo/wealthsense/store"
)

const (
	bodyLimit         = "1M"
	rateLimitExpiry   = 3 * time.Minute
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer builds the echo instance and mounts every route. metrics may be
// nil, in which case /metrics is not served.
func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, handler apiv1.QueryHandler, metrics http.Handler) (*Server, error) {
	if profile == nil {
		return nil, errors.New("profile required")
	}
	if store == nil {
		return nil, errors.New("store required")
	}

	s := &Server{
		Profile: profile,
		Store:   store,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadHeaderTimeout = readHeaderTimeout
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	echoServer.Use(middleware.BodyLimit(bodyLimit))
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     profile.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	if metrics != nil {
		echoServer.GET("/metrics", echo.WrapHandler(metrics))
	}

	var authenticator *auth.Authenticator
	if profile.JWTSecret != "" {
		authenticator = auth.NewAuthenticator(profile.JWTSecret)
	} else {
		slog.Warn("JWT secret not configured, API identity checks are disabled", "mode", profile.Mode)
	}

	apiV1Service := apiv1.NewAPIV1Service(profile, store, handler, authenticator)
	apiV1Service.RegisterRoutes(echoServer, queryRateLimiter(profile.QueryRateLimit))

	return s, nil
}

// queryRateLimiter limits each caller, keyed by user id or client IP, to
// perSecond requests with a matching burst. perSecond <= 0 disables it.
func queryRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(math.Ceil(perSecond))
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: rateLimitExpiry,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if userID := auth.GetUserID(c.Request().Context()); userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + c.RealIP(), nil
		},
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Address is the listen address derived from the profile.
func (s *Server) Address() string {
	return net.JoinHostPort(s.Profile.Addr, fmt.Sprint(s.Profile.Port))
}

// Start binds the listener and serves in the background. Bind errors are
// returned; serve errors after startup are logged.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.Address())
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.Address())
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(s.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the stores.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.Store.Close(ctx); err != nil {
		slog.Error("failed to close stores", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}
