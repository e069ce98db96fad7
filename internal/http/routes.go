package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wordstake_backend/internal/config"
	"wordstake_backend/internal/http/handlers"
	"wordstake_backend/internal/http/middleware"
)

// RegisterRoutes wires the HTTP surface: health probes, metrics, auth and
// the game API. Play actions sit behind both the per-IP group limiter and a
// per-wallet limiter.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, h *handlers.Handler, cfg *config.Config, version string) {
	healthHandler := handlers.NewHealthHandler(db, version)

	// health checks and metrics bypass rate limiting
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	v1.POST("/auth", middleware.RedisRateLimit(5, cfg.APIRateWindow), h.Auth)

	playRL := middleware.WalletRateLimit(cfg.GameRateLimit, cfg.GameRateWindow)

	games := v1.Group("/games")
	{
		games.POST("", middleware.JWT(), h.CreateOrJoin)
		games.GET("/:id", h.GetGame)
		games.GET("/:id/transactions", h.GameTransactions)

		games.POST("/:id/deposit", middleware.JWT(), playRL, h.VerifyDeposit)
		games.POST("/:id/words", middleware.JWT(), playRL, h.SubmitWord)
		games.POST("/:id/forfeit", middleware.JWT(), h.Forfeit)
		games.POST("/:id/cancel", middleware.JWT(), h.Cancel)
	}

	v1.GET("/me/transactions", middleware.JWT(), h.MyTransactions)

	// live game snapshots
	r.GET("/ws", h.WS)
}
