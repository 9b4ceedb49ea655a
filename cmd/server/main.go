package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/config"
	"bridgequest/internal/game_management"
	"bridgequest/internal/handlers"
	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
	"bridgequest/internal/routers"
	"bridgequest/internal/session"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.GameSettings{},
		&models.Player{},
		&models.Position{},
	); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("parse redis url", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameRepo := &repositories.GameRepository{DB: db}
	playerRepo := &repositories.PlayerRepository{DB: db}
	positionRepo := &repositories.PositionRepository{DB: db}

	hub := session.NewHub()
	gateway := broadcast.NewGateway(rdb, logger)
	relay := broadcast.NewRelay(rdb, hub, logger)
	go relay.Run(ctx)

	pending := game_management.NewPendingExclusions(rdb, cfg.DisconnectGrace)
	scores := game_management.NewScoreCalculator(playerRepo)
	lifecycle := game_management.NewLifecycleManager(gameRepo, playerRepo, scores, gateway, logger)
	lobby := game_management.NewLobbyManager(gameRepo, playerRepo, pending, gateway, lifecycle, logger)
	gamesMgr := game_management.NewGameManager(gameRepo, playerRepo, lifecycle, logger)

	sweeper := game_management.NewSweeper(gameRepo, lifecycle, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	h := handlers.New(cfg.JWTSecret, gamesMgr, lobby, gameRepo, playerRepo, positionRepo, gateway, hub, logger)
	router := routers.New(h)

	addr := ":" + cfg.Port
	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("bridgequest server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
