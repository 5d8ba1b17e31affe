package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bankroll-terminal/internal/auth"
	"bankroll-terminal/internal/config"
	"bankroll-terminal/internal/database"
	"bankroll-terminal/internal/events"
	"bankroll-terminal/internal/handlers"
	"bankroll-terminal/internal/logger"
	"bankroll-terminal/internal/metrics"
	"bankroll-terminal/internal/services"
	"bankroll-terminal/internal/staking"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New("bankroll-terminal", cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}
	zlog.Info("database ready")

	// Ledger event fan-out is best effort; without Redis the ledger runs
	// standalone and only the realtime collaborators go dark.
	var publisher events.Publisher = events.Nop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		publisher = events.NewRedisPublisher(rdb, zlog, cfg.Redis.EventChannel)
		zlog.Info("event fan-out enabled", zap.String("channel", cfg.Redis.EventChannel))
	}

	// Initialize services
	db := database.GetDB()
	sessionService := services.NewSessionService(db, zlog, publisher)
	betService := services.NewBetService(db, zlog, staking.DefaultConfig(), publisher)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionService, zlog)
	betHandler := handlers.NewBetHandler(betService, zlog)

	// Set up Gin router
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Ledger routes (protected)
	api := router.Group("")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions", sessionHandler.ListSessions)
		api.GET("/sessions/:id", sessionHandler.GetSession)
		api.POST("/sessions/:id/close", sessionHandler.CloseSession)
		api.DELETE("/sessions/:id", sessionHandler.DeleteSession)

		api.POST("/sessions/:id/bets", betHandler.PlaceBet)
		api.POST("/sessions/:id/recommend", betHandler.RecommendBet)

		api.GET("/bets", betHandler.ListBets)
		api.POST("/bets/:id/settle", betHandler.SettleBet)
		api.DELETE("/bets/:id", betHandler.DeleteBet)

		api.GET("/summary", betHandler.Summary)
	}

	// Metrics and health probes live on their own port
	metricsSrv := metrics.StartServer(cfg.Server.MetricsPort, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = metricsSrv.Shutdown(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
