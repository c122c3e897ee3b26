// The itemvault worker consumes request envelopes, applies them to the
// store, and publishes result records back to the response queue.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itemvault/itemvault-go/config"
	"github.com/itemvault/itemvault-go/internal/rabbitmq"
	"github.com/itemvault/itemvault-go/messaging"
	"github.com/itemvault/itemvault-go/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		amqpURL    = flag.String("amqp-url", "", "AMQP connection URL (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *amqpURL != "" {
		cfg.AMQPURL = *amqpURL
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := rabbitmq.NewConnectionManager(cfg.AMQPURL, rabbitmq.WithLogger(logger))
	defer manager.Close()

	pool, err := rabbitmq.NewChannelPool(manager, rabbitmq.WithMaxSize(cfg.MaxPoolSize))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := rabbitmq.DeclareQueues(pool,
		rabbitmq.DurableQueue(cfg.RequestQueue),
		rabbitmq.DurableQueue(cfg.ResponseQueue),
	); err != nil {
		return err
	}

	metrics := messaging.NewMetrics(prometheus.DefaultRegisterer)
	publisher := rabbitmq.NewPublisher(pool, rabbitmq.WithPublisherLogger(logger))

	router := messaging.NewRouter(store.NewMemory(), publisher,
		messaging.WithResponseQueue(cfg.ResponseQueue),
		messaging.WithRouterLogger(logger),
		messaging.WithRouterMetrics(metrics),
	)

	group := rabbitmq.NewConsumerGroup(manager, rabbitmq.WithConsumerLogger(logger))
	defer group.StopAll()

	if err := router.Start(ctx, group, cfg.RequestQueue,
		rabbitmq.WithPrefetchCount(cfg.PrefetchCount),
		rabbitmq.WithConsumerCount(cfg.ConsumerCount),
	); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	logger.Info("worker started",
		"requestQueue", cfg.RequestQueue,
		"responseQueue", cfg.ResponseQueue,
		"consumers", cfg.ConsumerCount,
		"prefetch", cfg.PrefetchCount,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping consumers")
	return group.StopAll()
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
