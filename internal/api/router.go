package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	// Registers the OpenAPI document served under /swagger.
	_ "github.com/carepoint/identity-service/docs"
	"github.com/carepoint/identity-service/internal/api/handler"
	"github.com/carepoint/identity-service/internal/api/middleware"
	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs. Everything is built in
// main and passed in, so the router never touches a driver.
type Deps struct {
	Auth      ports.AuthService
	Profiles  ports.ProfileService
	Tokens    ports.TokenService
	Accounts  ports.AccountReader
	Providers handler.ProviderLookup
	States    ports.OAuthStateStore
	Checks    map[string]handler.Check
	Log       zerolog.Logger

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	metricsCfg := echoprometheus.MiddlewareConfig{Subsystem: "identity"}
	handlerCfg := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		metricsCfg.Registerer = d.Registry
		handlerCfg.Gatherer = d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsCfg))
	e.Use(middleware.Authenticate(d.Tokens, d.Accounts))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	oauthHandler := handler.NewOAuthHandler(d.Auth, d.Providers, d.States)

	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/oauth2/:provider/authorize", oauthHandler.Authorize)
	e.GET("/auth/oauth2/:provider/callback", oauthHandler.Callback)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.RequireAuthenticated())
	v1.GET("/me", authHandler.Me)

	profileHandler := handler.NewProfileHandler(d.Profiles)

	patients := v1.Group("/patients")
	patients.PUT("/profile", profileHandler.UpsertPatient, middleware.RequireRole(domain.RolePatient))
	patients.GET("/profile", profileHandler.GetPatient, middleware.RequireRole(domain.RolePatient))
	patients.GET("", profileHandler.ListPatients, middleware.RequirePermission(domain.PermPatientRead))
	patients.GET("/:account_id", profileHandler.PatientByAccount, middleware.RequirePermission(domain.PermPatientRead))
	patients.DELETE("/:account_id", profileHandler.DeactivatePatient, middleware.RequirePermission(domain.PermPatientDelete))

	doctors := v1.Group("/doctors")
	doctors.PUT("/profile", profileHandler.UpsertDoctor, middleware.RequireRole(domain.RoleDoctor))
	doctors.GET("/profile", profileHandler.GetDoctor, middleware.RequireRole(domain.RoleDoctor))
	doctors.GET("", profileHandler.ListDoctors, middleware.RequirePermission(domain.PermDoctorRead))
	doctors.GET("/:account_id", profileHandler.DoctorByAccount, middleware.RequirePermission(domain.PermDoctorRead))
	doctors.DELETE("/:account_id", profileHandler.DeactivateDoctor, middleware.RequirePermission(domain.PermDoctorDelete))

	admins := v1.Group("/admins", middleware.RequireRole(domain.RoleAdmin))
	admins.PUT("/profile", profileHandler.UpsertAdmin)
	admins.GET("/profile", profileHandler.GetAdmin)

	accountHandler := handler.NewAccountHandler(d.Auth)
	accounts := v1.Group("/admin/accounts")
	accounts.GET("/:id", accountHandler.Get, middleware.RequirePermission(domain.PermAccountRead))
	accounts.PUT("/:id/roles", accountHandler.UpdateRoles, middleware.RequirePermission(domain.PermAccountRolesWrite))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
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
