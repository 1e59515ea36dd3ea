package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"yenfolio/pkg/yenfolio"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *yenfolio.Core, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Holdings and live valuation
	r.Get("/api/holdings", h.getHoldings)
	r.Post("/api/holdings", h.upsertHolding)
	r.Put("/api/holdings/{symbol}/cost-basis", h.setCostBasis)
	r.Get("/api/portfolio", h.getPortfolio)

	// Snapshots
	r.Get("/api/snapshots", h.getSnapshots)
	r.Post("/api/snapshots", h.createSnapshot)
	r.Post("/api/snapshots/backfill-crypto", h.backfillCrypto)

	// Capital ledger
	r.Get("/api/capital-events", h.getCapitalEvents)
	r.Post("/api/capital-events", h.addCapitalEvent)

	// Annual performance
	r.Get("/api/annual-performance", h.getAnnualPerformance)
	r.Post("/api/annual-performance", h.addYear)
	r.Put("/api/annual-performance/{year}", h.updateYear)
	r.Post("/api/annual-performance/{year}/finalize", h.finalizeYear)

	// Trades
	r.Get("/api/trades", h.getTrades)
	r.Post("/api/trades", h.processTrade)

	// Prices
	r.Get("/api/prices/{symbol}", h.fetchPrice)
	r.Post("/api/prices/refresh", h.refreshPrices)

	// Operation logs
	r.Get("/api/operation-logs", h.getOperationLogs)

	return r
}

type handler struct {
	core *yenfolio.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
