package handler

import (
	"gambling-bot/internal/adapter/http/middleware"
	"gambling-bot/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	RateLimitStore ports.CooldownStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode: debug, release, test
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine for the ops HTTP surface.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 10))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rl := func(c *gin.Context) { c.Next() }
	if deps.RateLimitStore != nil {
		rl = middleware.RateLimiter(deps.RateLimitStore, "api", middleware.DefaultRateLimitRule, deps.Logger)
	}

	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	v1 := r.Group("/api/v1", rl)
	{
		v1.GET("/currencies", ledgerHandler.ListCurrencies)
		v1.GET("/wallets/:user_id", ledgerHandler.GetWallet)
	}

	return r
}
