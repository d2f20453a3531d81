package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdeenkov/farewatch/config"
	"github.com/avdeenkov/farewatch/internal/bootstrap"
	"github.com/avdeenkov/farewatch/internal/cache"
	"github.com/avdeenkov/farewatch/internal/kafka"
	"github.com/avdeenkov/farewatch/internal/repository"
	"github.com/avdeenkov/farewatch/internal/service/fares"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo repository.FareRepository
	switch cfg.Store.Backend {
	case "elasticsearch":
		esRepo, err := repository.NewESFareRepository(cfg.Store.Elasticsearch)
		if err != nil {
			log.Fatalf("connect elasticsearch: %v", err)
		}
		repo = esRepo
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.Postgres.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		repo = repository.NewPGFareRepository(pool)
	default:
		log.Fatalf("unknown store backend %q", cfg.Store.Backend)
	}

	opts := []fares.FareServiceOption{}
	if cfg.Fares.ResultsCacheTTL > 0 {
		ttl := time.Duration(cfg.Fares.ResultsCacheTTL) * time.Second
		opts = append(opts, fares.WithCache(cache.NewRedisCache(cfg.Redis, ttl)))
	}
	if cfg.Fares.DropAlertThreshold > 0 && cfg.Kafka.AlertsTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts, fares.WithDropAlerts(producer, cfg.Kafka.AlertsTopic, cfg.Fares.DropAlertThreshold))
	}

	fareService := fares.NewFareService(repo, opts...)

	if err := bootstrap.Run(ctx, cfg, fareService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
