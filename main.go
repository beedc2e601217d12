package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecommerce-micro/products-service/internal/app/service"
	"github.com/ecommerce-micro/products-service/internal/app/validation"
	"github.com/ecommerce-micro/products-service/internal/domain"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/config"
	apphttp "github.com/ecommerce-micro/products-service/internal/infrastructure/http"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/http/handler"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/repository/memory"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/repository/postgres"
	"github.com/ecommerce-micro/products-service/internal/infrastructure/telemetry"
)

func main() {
	cfg := config.LoadConfig()

	telem, err := telemetry.NewTelemetry(&cfg.OTLP)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-service")
	meter := telem.MeterProvider.Meter("products-service")
	logger := telem.Logger

	logger.Info("Starting products service")

	// Entity store: in-memory by default, PostgreSQL when configured.
	var repo domain.ProductRepository
	switch cfg.RepositoryDriver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		repo = postgres.NewProductRepository(pool, logger)
	default:
		repo = memory.NewProductRepository(tracer, logger)
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL(), cfg.RabbitMQ.ProductsExchange, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err.Error())
		os.Exit(1)
	}
	defer publisher.Close()

	productService := service.NewProductService(repo, publisher, validation.New(), tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := apphttp.NewServer(&cfg.Server, productHandler, logger, telem)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err.Error())
	}

	logger.Info("Server stopped")
}
