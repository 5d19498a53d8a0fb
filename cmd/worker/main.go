package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ariefcatur/go-rental-stock.git/internal/availability"
	"github.com/ariefcatur/go-rental-stock.git/internal/config"
	kafkax "github.com/ariefcatur/go-rental-stock.git/internal/kafka"
	"github.com/ariefcatur/go-rental-stock.git/internal/postgres"
	"github.com/ariefcatur/go-rental-stock.git/internal/redisx"
	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &availability.Service{
		Stock:       &rental.CatalogRepo{DB: db, Cap: cfg.StockMax},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("WORKER_GROUP", "availability-svc")
	workers := mustAtoi(os.Getenv("WORKER_CONCURRENCY"), "8")

	// Dua consumer (created & rejected) di bawah satu errgroup.
	cOK := kafkax.NewConsumer(cfg.KafkaBrokers, group, rental.TopicRentalCreated, workers)
	cRJ := kafkax.NewConsumer(cfg.KafkaBrokers, group, rental.TopicRentalRejected, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("consumer started: group=%s topic=%s workers=%d", group, rental.TopicRentalCreated, workers)
		return cOK.Start(gctx, svc.HandleRentalCreated)
	})
	g.Go(func() error {
		log.Printf("consumer started: group=%s topic=%s workers=%d", group, rental.TopicRentalRejected, workers)
		return cRJ.Start(gctx, svc.HandleRentalRejected)
	})

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down consumers...")
		cancel()
	case <-gctx.Done():
	}
	if err := g.Wait(); err != nil {
		log.Printf("consumer exit: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
