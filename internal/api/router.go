package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/grabandgo/campus-orders/docs"
	"github.com/grabandgo/campus-orders/internal/api/handler"
	"github.com/grabandgo/campus-orders/internal/api/middleware"
	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/infrastructure/http/handlers"
)

// Deps holds what the router wires into handlers.
type Deps struct {
	Auth     ports.AuthService
	Orders   ports.OrderService
	Catalog  ports.CatalogService
	Sessions middleware.SessionParser
	// Realtime serves the websocket gateway; nil leaves the route unregistered.
	Realtime http.Handler
	Health   []handlers.Dependency
	// Registry receives HTTP metrics and backs /metrics. Nil means the
	// process-wide default registry.
	Registry     *prometheus.Registry
	AllowOrigins []string
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "campus",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/connection/websocket"
		},
	}))
	if len(d.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: d.AllowOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
		}))
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	orderHandler := handler.NewOrderHandler(d.Orders)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)

	requireAuth := middleware.Auth(d.Sessions)
	studentOnly := middleware.RBAC(domain.RoleStudent)
	restaurantOnly := middleware.RBAC(domain.RoleRestaurant)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)
	api.POST("/recover-password", authHandler.RecoverPassword)
	api.POST("/realtime-token", authHandler.RealtimeToken, requireAuth)

	// --- Catalog routes ---
	api.GET("/restaurants", catalogHandler.ListRestaurants, middleware.OptionalAuth(d.Sessions))
	api.PUT("/restaurants/:id", catalogHandler.UpdateRestaurant, requireAuth, restaurantOnly)
	api.PUT("/restaurants/:id/status", catalogHandler.SetRestaurantStatus, requireAuth, restaurantOnly)
	api.PUT("/restaurants/:id/verify", catalogHandler.VerifyRestaurant, requireAuth, adminOnly)
	api.DELETE("/restaurants/:id", catalogHandler.DeclineRestaurant, requireAuth, adminOnly)

	api.GET("/menu", catalogHandler.ListMenu)
	api.POST("/menu", catalogHandler.CreateMenuItem, requireAuth, restaurantOnly)
	api.PUT("/menu/:id", catalogHandler.UpdateMenuItem, requireAuth, restaurantOnly)
	api.DELETE("/menu/:id", catalogHandler.DeleteMenuItem, requireAuth, restaurantOnly)

	// --- Order routes ---
	orders := api.Group("/orders", requireAuth)
	orders.POST("", orderHandler.Create, studentOnly)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/:id/history", orderHandler.History)
	orders.PUT("/:id/status", orderHandler.UpdateStatus, restaurantOnly)
	orders.POST("/:id/verify", orderHandler.Verify, restaurantOnly)
	api.POST("/pickup", orderHandler.VerifyByCode, requireAuth, restaurantOnly)

	// --- Realtime gateway (token in query string) ---
	if d.Realtime != nil {
		e.GET("/connection/websocket", echo.WrapHandler(d.Realtime))
	}

	// --- Ops ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health...)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
