package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightfoot-pos/config"
	"lightfoot-pos/internal/database"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/gateway"
	"lightfoot-pos/internal/gateway/clients"
	"lightfoot-pos/internal/gateway/handlers"
	"lightfoot-pos/internal/logger"
	"lightfoot-pos/internal/services/customers"
	"lightfoot-pos/internal/services/employees"
	"lightfoot-pos/internal/services/inventory"
	"lightfoot-pos/internal/services/kitchen"
	"lightfoot-pos/internal/services/menu"
	"lightfoot-pos/internal/services/orders"
	"lightfoot-pos/internal/services/reports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.LoadConfig()

	log := logger.Must(cfg.Env)
	defer logger.Sync(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DB.DSN, database.DefaultOptions(cfg.IsProduction()), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	if cfg.DB.SeedData {
		if err := database.SeedManager(db, log); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	}

	redisClient, err := config.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	kitchenClient, err := clients.NewKitchenClient(cfg.Server.KitchenGRPCAddr)
	if err != nil {
		log.Warn("kitchen feed unavailable", zap.String("addr", cfg.Server.KitchenGRPCAddr), zap.Error(err))
	}
	defer kitchenClient.Close()

	loc := cfg.Store.Location()
	publisher := events.NewPublisher(redisClient, logger.Component(log, "events"))

	ledger := inventory.NewLedger(db, publisher, logger.Component(log, "inventory"))
	intake := orders.NewIntake(db, ledger, publisher, logger.Component(log, "orders"))
	history := orders.NewHistory(db, logger.Component(log, "orders"))
	queue := kitchen.NewQueue(db, publisher, loc, logger.Component(log, "kitchen"))
	aggregator := reports.NewAggregator(db, publisher, loc, logger.Component(log, "reports"))
	menuService := menu.NewService(db, redisClient, ledger, logger.Component(log, "menu"))
	rewards := customers.NewRewards(db, logger.Component(log, "customers"))
	employeeService := employees.NewService(db, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, logger.Component(log, "employees"))

	httpLog := logger.Component(log, "http")
	router, err := gateway.NewRouter(gateway.RouterConfig{
		AuthEnabled: cfg.Auth.Enabled,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, gateway.Handlers{
		Menu:      handlers.NewMenuHTTPHandler(menuService, intake, history, ledger, rewards, httpLog),
		Kitchen:   handlers.NewKitchenHTTPHandler(queue, kitchenClient, httpLog),
		Inventory: handlers.NewInventoryHTTPHandler(ledger, httpLog),
		Orders:    handlers.NewOrdersHTTPHandler(history, aggregator, loc, httpLog),
		User:      handlers.NewUserHTTPHandler(employeeService, rewards, httpLog),
		Health:    handlers.NewHealthHTTPHandler(db, redisClient, kitchenClient),
	}, httpLog)
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}
	if !cfg.Auth.Enabled {
		log.Warn("authentication disabled, protected routes are open")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http server forced to shut down", zap.Error(err))
	}
}
