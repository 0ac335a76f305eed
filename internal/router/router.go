// Package router wires the Echo instance: global middleware, the central
// error handler and every route group.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/config"
	"github.com/mendo-app/backend/internal/handler"
	"github.com/mendo-app/backend/internal/middleware"
	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/session"
)

// Deps carries everything the router needs to register routes.
type Deps struct {
	Cfg      config.Config
	Log      zerolog.Logger
	Sessions session.Store
	Redis    *redis.Client
	Auth     *handler.AuthHandler
	Repairs  *handler.RepairHandler
	Quotes   *handler.QuoteHandler
	Admin    *handler.AdminHandler
}

// New builds the Echo instance with all routes registered under /api.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Cfg.FrontOrigin},
		AllowCredentials: true,
	}))
	e.Use(requestLogger(d.Log))

	// Operational endpoints outside the /api prefix.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/static/uploads", d.Cfg.UploadDir)

	authed := middleware.SessionAuth(d.Sessions)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	rateLimited := middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register, rateLimited)
	auth.POST("/login", d.Auth.Login, rateLimited)
	auth.GET("/verify", d.Auth.Verify)
	auth.POST("/logout", d.Auth.Logout, authed)
	auth.GET("/me", d.Auth.Me, authed)
	auth.PUT("/profile", d.Auth.UpdateProfile, authed)

	repairs := api.Group("/repairs")
	repairs.GET("/requests", d.Repairs.List)
	repairs.GET("/requests/:id", d.Repairs.Get)
	repairs.POST("/requests", d.Repairs.Create, authed, middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	repairs.GET("/requests/mine", d.Repairs.MyRequests, authed)
	repairs.POST("/requests/:id/images", d.Repairs.UploadImage, authed)
	repairs.POST("/requests/:id/quotes", d.Quotes.Submit, authed, middleware.RequireRole(model.RoleRepairer, model.RoleAdmin))
	repairs.POST("/quotes/:id/accept", d.Quotes.Accept, authed)
	repairs.GET("/quotes/mine", d.Quotes.MyQuotes, authed)

	admin := api.Group("/admin", authed, adminOnly)
	admin.GET("/dashboard", d.Admin.Dashboard)
	admin.GET("/users", d.Admin.Users)
	admin.PUT("/users/:id/status", d.Admin.SetUserStatus)
	admin.GET("/requests", d.Admin.Requests)
	admin.PUT("/requests/:id/status", d.Admin.SetRequestStatus)
	admin.GET("/quotes", d.Admin.Quotes)
	admin.POST("/users/delete-by-email", d.Admin.DeleteUserByEmail)

	return e
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
