package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/fforsikring/prisberegner/internal/auth"
	"github.com/fforsikring/prisberegner/internal/config"
	"github.com/fforsikring/prisberegner/internal/handler"
	middlewarepkg "github.com/fforsikring/prisberegner/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router. Admin handlers
// are nil when no database is configured; their routes are skipped.
type Handlers struct {
	CVR       *handler.CVRHandler
	Lead      *handler.LeadHandler
	Positions *handler.PositionsHandler
	Wizard    *handler.WizardHandler
	Auth      *handler.AuthHandler
	Leads     *handler.LeadsAdminHandler
	Users     *handler.UserAdminHandler
}

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	// Widget endpoints are embedded cross-origin on customer sites.
	api := e.Group("/api", echoMiddleware.CORS())
	api.GET("/cvr", handlers.CVR.Lookup)
	api.GET("/positions", handlers.Positions.List)
	api.POST("/lead", handlers.Lead.Submit, middlewarepkg.PathRateLimiter("/api/lead", cfg.RateLimitLead))

	wizard := e.Group("/wizard", echoMiddleware.CORS())
	wizard.POST("", handlers.Wizard.Create)
	wizard.GET("/:id", handlers.Wizard.Get)
	wizard.POST("/:id/cvr", handlers.Wizard.SetCVR)
	wizard.POST("/:id/advance", handlers.Wizard.AdvanceCompany)
	wizard.POST("/:id/count", handlers.Wizard.SetCount)
	wizard.POST("/:id/role", handlers.Wizard.SetRole)
	wizard.POST("/:id/calculate", handlers.Wizard.Calculate)
	wizard.POST("/:id/retreat", handlers.Wizard.Retreat)
	wizard.POST("/:id/submit", handlers.Wizard.Submit)

	if handlers.Auth != nil {
		e.POST("/auth/login", handlers.Auth.Login)
	}

	if handlers.Leads != nil || handlers.Users != nil {
		secured := e.Group("")
		secured.Use(middlewarepkg.JWT(jwtManager))

		admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
		if handlers.Leads != nil {
			admin.GET("/leads", handlers.Leads.List)
		}
		if handlers.Users != nil {
			admin.GET("/users", handlers.Users.List)
			admin.POST("/users", handlers.Users.Create)
		}
	}
}
