package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/nestmarket/session-gateway/internal/api/handler"
	"github.com/nestmarket/session-gateway/internal/api/middleware"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Registry  ports.SessionRegistry
	Navigator ports.Navigator
	Client    middleware.ClientConfig
	Checks    []handler.DependencyCheck
	Log       zerolog.Logger
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "session_gateway",
		Registerer: d.Registerer,
	}))

	// --- Operational routes (no client identity) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are the stores up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Client routes ---
	client := e.Group("", middleware.Client(d.Client), middleware.Session(d.Registry))
	authed := middleware.Authenticated()

	sessionHandler := handler.NewSessionHandler()
	client.GET("/session", sessionHandler.Get)
	client.POST("/session/login", sessionHandler.Login)
	client.PUT("/session/user", sessionHandler.UpdateUser, authed)
	client.POST("/session/logout", sessionHandler.Logout)
	client.GET("/session/handoff", sessionHandler.Handoff, authed)

	navigationHandler := handler.NewNavigationHandler(d.Navigator)
	client.GET("/navigation", navigationHandler.Menu)

	notificationHandler := handler.NewNotificationHandler()
	client.GET("/notifications", notificationHandler.List, authed)
	client.POST("/notifications/:id/read", notificationHandler.MarkRead, authed)

	bookmarkHandler := handler.NewBookmarkHandler()
	client.GET("/bookmarks", bookmarkHandler.List)
	client.POST("/bookmarks/:id/toggle", bookmarkHandler.Toggle)

	return e
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
