package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc"

	"github.com/rl1809/order-refund/internal/adapter/handler"
	"github.com/rl1809/order-refund/internal/adapter/messaging"
	"github.com/rl1809/order-refund/internal/adapter/storage"
	"github.com/rl1809/order-refund/internal/config"
	"github.com/rl1809/order-refund/internal/core/service"
	"github.com/rl1809/order-refund/internal/logging"
	"github.com/rl1809/order-refund/internal/port"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or .env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error("failed to open mysql", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "err", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Initialize adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)

	var writer *kafka.Writer
	var producer messaging.Producer
	if cfg.EventDelivery != config.DeliverySync {
		writer = messaging.NewKafkaWriter(cfg.Brokers())
		producer = writer
	}
	publisher, closePublisher := newPublisher(cfg, log, mysqlAdapter, producer)

	// Initialize service
	refundHandler := service.NewRefundUnitsHandler(
		service.NewUnitsRefunder(mysqlAdapter, mysqlAdapter),
		service.NewShipmentsRefunder(mysqlAdapter, mysqlAdapter),
		service.NewOrderRefundingAvailabilityChecker(mysqlAdapter),
		publisher,
		mysqlAdapter,
		service.NewOrderFullyRefundedTotalChecker(mysqlAdapter),
		service.NewOrderFullyRefundedStateResolver(log, mysqlAdapter),
	)
	lockedHandler := service.NewOrderLockedHandler(log, refundHandler, redisAdapter, cfg.OrderLockTTL)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterRefundServiceServer(grpcServer, handler.NewGRPCHandler(log, lockedHandler))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "err", err)
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(log, lockedHandler, redisAdapter)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	closePublisher()
	if writer != nil {
		writer.Close()
	}
	log.Info("publisher stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

// newPublisher builds the in-process bus every refund event goes through.
// The partial refund recorder is always subscribed; kafka and async delivery
// add the producer as one more subscriber. The returned function flushes
// pending deliveries.
func newPublisher(cfg config.Config, log *slog.Logger, orders port.OrderRepository, producer messaging.Producer) (port.EventPublisher, func()) {
	bus := messaging.NewSyncBus()
	bus.Subscribe(service.NewPartialRefundRecorder(log, orders).OnUnitsRefunded)

	switch cfg.EventDelivery {
	case config.DeliveryKafka:
		bus.Subscribe(messaging.NewKafkaPublisher(log, producer, cfg.KafkaTopic).Publish)
		return bus, func() {}

	case config.DeliveryAsync:
		async := messaging.NewAsyncPublisher(log, messaging.NewKafkaPublisher(log, producer, cfg.KafkaTopic), cfg.PublishQueueSize)
		async.Start(cfg.PublishWorkers)
		bus.Subscribe(async.Publish)
		return bus, async.Close

	default:
		return bus, func() {}
	}
}
