package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"short-links/internal/database"
	"short-links/internal/server"
	"short-links/internal/shortener"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx)
	if err != nil {
		log.Fatalf("[api:main] connecting to database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		log.Fatalf("[api:main] creating tables: %v", err)
	}

	cfg := shortener.DefaultConfig()
	core := shortener.New(db, db, cfg)

	// The sweeper is joined on shutdown, not fire-and-forget.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		shortener.NewSweeper(db, db, cfg).Run(ctx)
	}()

	srv := server.NewServer(db, core)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[api:main] shutting down server: %v", err)
		}
	}()

	log.Printf("[api:main] listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[api:main] server error: %v", err)
	}

	wg.Wait()
	log.Println("[api:main] shutdown complete")
}
