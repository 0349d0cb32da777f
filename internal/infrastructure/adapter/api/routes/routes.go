package routes

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// Dependencies gathers what the router needs to serve the API
type Dependencies struct {
	WheelHandler      *handler.WheelHandler
	RedemptionHandler *handler.RedemptionHandler
	HealthHandler     *handler.HealthHandler
	Identity          usecase.IdentityUseCase
	Cookie            middleware.CookieConfig
	// RedeemLimiter throttles code attempts; nil disables throttling
	RedeemLimiter  coreport.RateLimiter
	AllowedOrigins []string
	StaticDir      string
	Logger         coreport.Logger
	TimeProvider   coreport.TimeProvider
}

// NewRouter builds a gin engine with middlewares and routes installed
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	SetupMiddlewares(router, deps)
	SetupRoutes(router, deps)
	return router
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger, deps.TimeProvider))
	router.Use(middleware.ErrorHandler(deps.Logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(deps.AllowedOrigins)))
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/healthz", deps.HealthHandler.Health)

	api := router.Group("/api")
	{
		api.GET("/items", deps.WheelHandler.Items)
		api.POST("/admin/add-code", deps.RedemptionHandler.AddCode)

		identity := middleware.Identity(deps.Identity, deps.Cookie, deps.Logger)

		player := api.Group("", identity)
		player.GET("/saldo", deps.WheelHandler.GetBalance)
		player.POST("/spin", deps.WheelHandler.Spin)
		player.GET("/spins", deps.WheelHandler.History)

		// throttled before identity resolution
		var redeem []gin.HandlerFunc
		if deps.RedeemLimiter != nil {
			redeem = append(redeem, middleware.RateLimit("redeem", deps.RedeemLimiter, deps.Logger))
		}
		redeem = append(redeem, identity, deps.RedemptionHandler.Redeem)
		api.POST("/redeem", redeem...)
	}

	if deps.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(deps.StaticDir))))
	}
}
