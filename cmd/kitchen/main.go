package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"lightfoot-pos/config"
	"lightfoot-pos/internal/database"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/logger"
	"lightfoot-pos/internal/services/kitchen"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.Must(cfg.Env)
	defer logger.Sync(log)

	db, err := database.NewConnection(cfg.DB.DSN, database.DefaultOptions(cfg.IsProduction()), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient, err := config.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	publisher := events.NewPublisher(redisClient, logger.Component(log, "events"))
	queue := kitchen.NewQueue(db, publisher, cfg.Store.Location(), logger.Component(log, "kitchen"))

	lis, err := net.Listen("tcp", ":"+cfg.Server.KitchenGRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("port", cfg.Server.KitchenGRPCPort), zap.Error(err))
	}

	s, healthServer := kitchen.NewGRPCServer(queue, logger.Component(log, "grpc"))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down kitchen feed")
		healthServer.Shutdown()
		s.GracefulStop()
	}()

	log.Info("kitchen feed listening", zap.String("addr", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		log.Fatal("failed to serve", zap.Error(err))
	}
}
