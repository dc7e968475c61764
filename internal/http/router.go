package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/config"
	"paysync-server/internal/http/handlers"
	"paysync-server/internal/http/middleware"
)

type Dependencies struct {
	Config      *config.Config
	Auth        handlers.Authenticator
	Tokens      middleware.TokenParser
	Sync        handlers.SyncRunner
	Payments    handlers.PaymentQueries
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))

	authHandler := handlers.NewAuthHandler(deps.Auth)
	meHandler := handlers.NewMeHandler(deps.Auth)
	syncHandler := handlers.NewSyncHandler(deps.Sync)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)

	router.GET("/healthz", handlers.Health)

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(deps.RateLimiter.Middleware())
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(deps.Tokens))
	{
		protected.GET("/me", meHandler.GetMe)
		protected.POST("/sync", syncHandler.Run)
		protected.GET("/payments", paymentHandler.List)
		protected.GET("/payments/:id", paymentHandler.GetByID)
		protected.GET("/dashboard", paymentHandler.Dashboard)
	}

	return router
}
