package handler

import (
	"denomination-wallet/internal/adapter/http/middleware"
	"denomination-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Commands          ports.WalletCommandService
	Queries           ports.WalletQueryService
	Auth              ports.AuthService
	TokenSvc          ports.TokenService
	RateLimiter       middleware.Limiter // nil = rate limiting disabled
	RequestsPerMinute int
	HealthCheckers    []ports.HealthChecker
	Logger            zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.WalletRateLimitRules(deps.RequestsPerMinute)

	// Helper: return rate limiter middleware if a limiter is configured, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}
	read, write := rl("wallet_read"), rl("wallet_write")

	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.Auth)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// JWT runs first so the limiter counts per actor.
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	h := NewWalletHandler(deps.Commands, deps.Queries)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", write, h.CreateWallet)
		wallets.GET("", read, h.ListWallets)
		wallets.GET("/:id", read, h.GetWallet)
		wallets.PATCH("/:id", write, h.UpdateWallet)

		wallets.POST("/:id/denominations", write, h.AddDenomination)
		wallets.GET("/:id/denominations", read, h.ListDenominations)
		wallets.DELETE("/:id/denominations/:denominationId", write, h.RemoveDenomination)

		wallets.POST("/:id/deposit", write, h.Deposit)
		wallets.POST("/:id/withdraw", write, h.Withdraw)
		wallets.GET("/:id/transactions", read, h.ListTransactions)
	}

	return r
}
