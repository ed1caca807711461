package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-inventory/internal/auth"
	"ms-inventory/internal/config"
	"ms-inventory/internal/database/migrations"
	"ms-inventory/internal/event"
	eventdb "ms-inventory/internal/event/db"
	"ms-inventory/internal/event/event_api"
	"ms-inventory/internal/inventory"
	inventorydb "ms-inventory/internal/inventory/db"
	"ms-inventory/internal/inventory/inventory_api"
	"ms-inventory/internal/inventory/qr"
	msgkafka "ms-inventory/internal/kafka"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/transaction"
	txndb "ms-inventory/internal/transaction/db"
	txnkafka "ms-inventory/internal/transaction/kafka"
	"ms-inventory/internal/transaction/transaction_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", "Failed to open Postgres: "+err.Error())
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect to Postgres: "+err.Error())
	}
	log.Info("DATABASE", "Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", "Migrations failed: "+err.Error())
	}
	defer runner.Close()

	// Identity cache is best effort: the directory works without it.
	identityCache, err := auth.InitializeIdentityCache(cfg.Redis.Addr, cfg.Auth.IdentityTTL, log)
	if err != nil {
		log.Warn("AUTH", "Redis unavailable, identity lookups will not be cached: "+err.Error())
		identityCache = nil
	}
	directory := auth.NewDirectory(cfg.Auth.UserServiceURL, &http.Client{Timeout: 10 * time.Second}, identityCache)

	var publisher transaction.KafkaPublisher = txnkafka.NoopPublisher{}
	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		topics := []string{
			cfg.Kafka.Topics.TransactionCreated,
			cfg.Kafka.Topics.TransactionUpdated,
			cfg.Kafka.Topics.TransactionCancelled,
			cfg.Kafka.Topics.PaymentResults,
		}
		if err := msgkafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", "Topic bootstrap failed: "+err.Error())
		}
		producer := txnkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer producer.Close()
		publisher = producer
	}

	inventoryDB := &inventorydb.DB{Bun: bunDB}
	eventDB := &eventdb.DB{Bun: bunDB}
	transactionDB := &txndb.DB{Bun: bunDB}

	ticketTypeService := inventory.NewTicketTypeService(inventoryDB, directory, log)
	eventService := event.NewEventService(eventDB, directory, log)
	transactionService := transaction.NewTransactionService(transactionDB, publisher, directory, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		consumer := msgkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentResults, cfg.Kafka.GroupID)
		defer consumer.Close()
		go consumer.Start(ctx, func(e msgkafka.PaymentResultEvent) {
			if err := transactionService.ApplyPaymentResult(ctx, e.TransactionID, e.Status); err != nil {
				log.Error("KAFKA", "Failed to apply payment result for "+e.TransactionID+": "+err.Error())
			}
		})
	}

	inventoryHandler := inventory_api.NewHandler(ticketTypeService, qr.NewGenerator(cfg.Auth.QRSecret), log)
	eventHandler := event_api.NewHandler(eventService, log)
	transactionHandler := transaction_api.NewHandler(transactionService, log)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))

	inventoryHandler.RegisterRoutes(r)
	eventHandler.RegisterRoutes(r)
	transactionHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Inventory service on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP error: "+err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Inventory service shutdown complete")
}
