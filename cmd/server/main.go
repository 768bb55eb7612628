package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stationery-store/config"
	"stationery-store/internal/api"
	"stationery-store/internal/broker"
	"stationery-store/internal/ordernumber"
	"stationery-store/internal/redisclient"
	"stationery-store/internal/service"
	"stationery-store/internal/store"
	"stationery-store/internal/util"
	"stationery-store/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting stationery store")

	tp, err := util.InitTracer("stationery-store", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	var (
		ledger    store.StockLedger
		bookings  store.BookingStore
		rushStore store.RushStore
		events    store.EventLog
		sequence  ordernumber.Sequence
		generator ordernumber.Generator
		publisher broker.Publisher
		cache     *redisclient.Client
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var paymentWorker *worker.PaymentWorker

	if cfg.Store.DemoMode {
		log.Println("Demo mode: using in-memory fixtures, no external backends")

		demo := store.NewDemoStore()
		ledger, bookings, rushStore, events = demo, demo, demo, demo
		generator = ordernumber.RandomGenerator{}
		publisher = broker.NoopPublisher{}
	} else {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("Database connected")

		cache, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		log.Println("Redis connected")

		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicBooking)
		defer producer.Close()
		log.Println("Kafka producer initialized")

		ledger, bookings, rushStore, events = db, db, db, db
		sequence = db
		generator = ordernumber.NewCounterGenerator(sequence)
		publisher = broker.NewEventPublisher(producer)
	}

	var provider service.PaymentProvider = &service.MockProvider{SuccessRate: cfg.Store.PaymentSuccessRate}

	stockService := service.NewStockService(ledger, cache)
	paymentService := service.NewPaymentService(provider, cfg.Store.Currency)
	rushService := service.NewRushService(rushStore, cache)
	bookingService := service.NewBookingService(
		bookings, events, stockService, paymentService,
		generator, publisher, cfg.Store.Currency,
	)

	if !cfg.Store.DemoMode {
		ctx := context.Background()
		if err := stockService.SyncStockToCache(ctx); err != nil {
			log.Printf("Failed to sync stock to Redis: %v", err)
		}

		paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicBooking, cfg.Kafka.ConsumerGroup)
		paymentWorker = worker.NewPaymentWorker(paymentConsumer, bookingService)
		go func() {
			if err := paymentWorker.Start(workerCtx); err != nil {
				log.Printf("Payment worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		bookingService, stockService, rushService,
		publisher, cfg.Store.AdminToken, cfg.Store.DemoMode,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if paymentWorker != nil {
		paymentWorker.Stop()
	}

	log.Println("Server exited")
}
