package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"veracity-pipeline/internal/domain/ports/repository"
	"veracity-pipeline/internal/usecase"
)

// Server exposes the batch submission API. Completion is observed by
// polling the batch resource; there is no push channel.
type Server struct {
	preparer usecase.BatchPreparer
	batches  repository.BatchRepository
	results  repository.ResultRepository
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	preparer usecase.BatchPreparer,
	batches repository.BatchRepository,
	results repository.ResultRepository,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "web").Logger()
	return &Server{
		preparer: preparer,
		batches:  batches,
		results:  results,
		apiKey:   apiKey,
		log:      &compLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/batches", s.handleSubmitBatch)
		r.Get("/batches/{id}", s.handleGetBatch)
		r.Get("/batches/{id}/results", s.handleListResults)
	})
	return r
}

// authMiddleware provides simple Bearer token authentication for the API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
