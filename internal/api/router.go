package api

import (
	"fmt"
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/volunteerhub/registration-api/docs"
	"github.com/volunteerhub/registration-api/internal/api/handler"
	"github.com/volunteerhub/registration-api/internal/api/metrics"
	"github.com/volunteerhub/registration-api/internal/api/middleware"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

const metricsSubsystem = "http"

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Logger      zerolog.Logger
	Development bool

	AuthService ports.AuthService
	UserService ports.UserService
	Tokens      ports.TokenVerifier

	// Probes feed GET /health/ready, keyed by dependency name.
	Probes map[string]handler.Probe
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For. When empty the
	// client IP is the socket peer and forwarding headers are ignored.
	TrustedProxies []string
	// Registry receives HTTP and domain metrics and backs GET /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}

	ipExtractor, err := newIPExtractor(d.TrustedProxies)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.IPExtractor = ipExtractor
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.Development)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService, d.Logger)
	healthHandler := handler.NewHealthHandler(d.Probes)

	// --- Public routes ---
	e.GET("/", handler.Root)

	api := e.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/admin/login", authHandler.AdminLogin)

	// --- Admin routes ---
	adminOnly := []echo.MiddlewareFunc{middleware.Auth(d.Tokens), middleware.AdminOnly()}
	api.GET("/users", userHandler.List, adminOnly...)
	api.GET("/users/:id", userHandler.Get, adminOnly...)

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// newIPExtractor decides how c.RealIP() resolves the client address, which
// keys the admin login throttle.
func newIPExtractor(trusted []string) (echo.IPExtractor, error) {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trusted {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			var evt *zerolog.Event
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn()
			default:
				evt = log.Info()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
