package main

import (
	"context"
	"log"

	"short-links/internal/database"
	"short-links/internal/shortener"

	"github.com/robfig/cron/v3"
)

func main() {

	log.Println("[cronjobs:main] Running cronjob")
	c := cron.New()

	ctx := context.Background()
	db, err := database.New(ctx)
	if err != nil {
		log.Fatalf("[cronjobs:main] connecting to database: %v", err)
	}
	defer db.Close()

	sweeper := shortener.NewSweeper(db, db, shortener.DefaultConfig())

	// Running every 10 minutes
	c.AddFunc("*/10 * * * *", func() {
		sweeper.Sweep(ctx)
	})

	c.Start()

	// This keeps the program running
	select {}
}
