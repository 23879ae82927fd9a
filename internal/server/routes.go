package server

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"short-links/internal/shortener"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Post("/short", s.shortLinkHandler)
	r.Post("/expand", s.expandLinkHandler)
	r.Get("/{shortCode}", s.redirectUrlHandler)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResp, _ := json.Marshal(s.db.Health())
	_, _ = w.Write(jsonResp)
}

func (s *Server) shortLinkHandler(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !wellFormedURL(reqBody.URL) {
		writeError(w, http.StatusBadRequest, "url must be a well-formed http or https url")
		return
	}

	code, err := s.core.Shorten(r.Context(), reqBody.URL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"short_url": code})
	case shortener.IsRateLimited(err):
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "generation limit is over, wait a minute")
	default:
		log.Printf("[routes:shortLinkHandler] shorten %q: %v", reqBody.URL, err)
		writeError(w, http.StatusInternalServerError, "error generating short url")
	}
}

func (s *Server) redirectUrlHandler(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	originalURL, err := s.core.Resolve(r.Context(), shortCode)
	switch {
	case err == nil:
		http.Redirect(w, r, originalURL, http.StatusFound)
	case shortener.IsNotFound(err):
		writeError(w, http.StatusNotFound, "short url not found")
	case shortener.IsExpired(err):
		writeError(w, http.StatusGone, "short url expired")
	default:
		log.Printf("[routes:redirectUrlHandler] resolve %q: %v", shortCode, err)
		writeError(w, http.StatusInternalServerError, "error redirecting to original url")
	}
}

func (s *Server) expandLinkHandler(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		ShortURL string `json:"short_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil || reqBody.ShortURL == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	originalURL, err := s.core.Resolve(r.Context(), reqBody.ShortURL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"original_url": originalURL})
	case shortener.IsNotFound(err):
		writeError(w, http.StatusNotFound, "short url not found")
	case shortener.IsExpired(err):
		writeError(w, http.StatusGone, "short url expired")
	default:
		log.Printf("[routes:expandLinkHandler] resolve %q: %v", reqBody.ShortURL, err)
		writeError(w, http.StatusInternalServerError, "error expanding short url")
	}
}

func wellFormedURL(raw string) bool {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
