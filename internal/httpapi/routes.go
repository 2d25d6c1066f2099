package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/titomostafa/guessface-bot/internal/stats"
)

func SetupRoutes(rec stats.Recorder) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/stats/{username}", PlayerStats(rec))
	return r
}
