package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-rental-stock.git/internal/clock"
	"github.com/ariefcatur/go-rental-stock.git/internal/config"
	"github.com/ariefcatur/go-rental-stock.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-rental-stock.git/internal/kafka"
	"github.com/ariefcatur/go-rental-stock.git/internal/postgres"
	"github.com/ariefcatur/go-rental-stock.git/internal/redisx"
	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (created & rejected, dua topic berbeda)
	pOK := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicRentalCreated, 1024)
	pOK.Start(ctx)
	pRJ := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicRentalRejected, 1024)
	pRJ.Start(ctx)

	// Repos & coordinator
	catalog := &rental.CatalogRepo{DB: db, Cap: cfg.StockMax}
	rentals := &rental.RentalRepo{DB: db}
	coord := &rental.Coordinator{
		Catalog:   catalog,
		Customers: catalog,
		Ledger:    catalog,
		Records:   rentals,
		Clock:     clock.System(),
		DateFloor: cfg.DateFloor,
	}

	router := httpx.NewRouter()
	rh := &httpx.RentalsHandler{
		Coordinator: coord,
		Rentals:     rentals,
		Redis:       rdb,
		Created:     pOK,
		Rejected:    pRJ,
		Service:     cfg.ServiceName,
	}
	rh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pOK.Close() // tutup inbox -> flush & close writer
	pRJ.Close()
	cancel() // stop producer loop
	pOK.WaitClosed()
	pRJ.WaitClosed()
}
