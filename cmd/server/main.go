package main

import (
	"net/http"
	"time"

	"snackhub-be/internal/catalog"
	"snackhub-be/internal/config"
	"snackhub-be/internal/db"
	"snackhub-be/internal/inventory"
	"snackhub-be/internal/logger"
	"snackhub-be/internal/metrics"
	"snackhub-be/internal/notify"
	"snackhub-be/internal/order"
	"snackhub-be/internal/payment"
	"snackhub-be/internal/promo"
	"snackhub-be/internal/transport"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	counters := &metrics.OrderCounters{}

	reader := catalog.NewReader(database)
	stock := inventory.NewLedger(database)
	promos := promo.NewLedger(database)

	repo := order.NewRepository(database, stock, promos)
	orderSvc := order.NewService(repo, reader, promos, notify.NewLogNotifier(), order.Pricing{
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		NumberPrefix:          cfg.OrderNumberPrefix,
	}, counters)

	handler := transport.NewHandler(orderSvc, reader)
	webhook := payment.NewWebhookHandler(orderSvc)

	router := transport.NewRouter(handler, webhook, counters)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L().Info("🚀 server running", zap.String("port", cfg.AppPort))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
