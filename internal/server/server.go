package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"short-links/internal/database"
	"short-links/internal/shortener"
)

type Server struct {
	port int

	db   *database.Service
	core *shortener.Shortener
}

func NewServer(db *database.Service, core *shortener.Shortener) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	s := &Server{
		port: port,
		db:   db,
		core: core,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
