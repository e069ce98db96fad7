package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"wordstake_backend/internal/config"
	"wordstake_backend/internal/db"
	"wordstake_backend/internal/dictionary"
	httpServer "wordstake_backend/internal/http"
	"wordstake_backend/internal/http/handlers"
	"wordstake_backend/internal/http/middleware"
	"wordstake_backend/internal/logger"
	"wordstake_backend/internal/repository"
	"wordstake_backend/internal/service"
	"wordstake_backend/internal/solana"
	"wordstake_backend/internal/ws"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	chain, err := solana.NewClient(cfg.SolanaRPCURL, cfg.EscrowSecretKey)
	if err != nil {
		logger.Fatal("chain client init failed", "error", err)
	}
	logger.Info("escrow account", "address", chain.EscrowAddress())

	dict, err := dictionary.Load(cfg.DictionaryPath)
	if err != nil {
		logger.Fatal("dictionary load failed", "path", cfg.DictionaryPath, "error", err)
	}
	logger.Info("dictionary loaded", "words", dict.Size())

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	gameRepo := repository.NewGameRepository(dbPool)
	sigRepo := repository.NewSignatureRepository(dbPool)
	txRepo := repository.NewTransactionRepository(dbPool)

	hub := ws.NewHub()

	settlements := service.NewSettlementService(gameRepo, chain, txRepo, hub)
	deposits := service.NewDepositService(gameRepo, sigRepo, chain, hub, cfg.RoundDuration)
	words := service.NewWordService(gameRepo, dict, hub)
	games := service.NewGameService(gameRepo, settlements, hub, cfg.LetterCount, cfg.MinBet, cfg.MaxBet)

	worker := service.NewSettlementWorker(gameRepo, settlements, middleware.RedisClient(), cfg.SettleInterval, cfg.RetentionWindow)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go worker.Run(workerCtx)

	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS for browser clients on another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h := handlers.NewHandler(games, deposits, words, txRepo, hub)
	httpServer.RegisterRoutes(r, dbPool, h, cfg, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
