package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/internal/platform/config"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

// positive_amount rejects zero and negative decimals at the binding stage,
// before any movement record is created. Registered at package init so every
// route registration path sees it.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.GreaterThan(decimal.Zero)
		})
	}
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	codec *authtoken.Codec,
	services *portssvc.ServiceContainer,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register public authentication routes
	registerAuthRoutes(r, cfg, services.User, codec)

	// Setup API v1 routes behind the identity filter
	setupAPIV1Routes(r, codec, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	codec *authtoken.Codec,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.IdentityFilter(codec))

	registerUserRoutes(v1, services.User)
	RegisterAccountRoutes(v1, services.Account, services.Ledger)
	registerLedgerRoutes(v1, services.Ledger)
	RegisterMovementRoutes(v1, services.Movement, services.Account)
}
