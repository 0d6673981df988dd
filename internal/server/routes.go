package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/Impact2025/impacttour/internal/oracle"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, broker *Broker, eval oracle.Oracle, db *sql.DB, rdb *redis.Client, accuracyCeilingM float64, spaDir string) {
	locks := newTeamLocks()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("ImpactTour API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	// Team routes — bearer team token, except lookup/join/events.
	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions/{joinCode}", handleSessionLookup(store))
		r.Post("/join", handleJoin(store, broker))
		r.Get("/events", handleEvents(store, broker))

		r.Get("/state", handleState(store))
		r.Post("/position", handlePosition(store, accuracyCeilingM))
		r.Post("/unlock", handleUnlock(store, broker, locks, accuracyCeilingM))
		r.Post("/submissions", handleSubmit(store, broker, locks, eval))
		r.Get("/leaderboard", handleLeaderboard(store))
	})

	// Operator auth.
	r.Post("/api/operator/login", handleOperatorLogin(store))
	r.Post("/api/operator/logout", handleOperatorLogout(store))

	// Operator routes — cookie session.
	r.Route("/api/operator", func(r chi.Router) {
		r.Use(operatorAuthMiddleware(store))

		r.Get("/me", handleOperatorMe())

		r.Get("/tours", handleOperatorListTours(store))
		r.Post("/tours", handleOperatorCreateTour(store))
		r.Get("/tours/{id}", handleOperatorGetTour(store))

		r.Get("/sessions", handleOperatorListSessions(store))
		r.Post("/sessions", handleOperatorCreateSession(store))
		r.Post("/sessions/{id}/status", handleOperatorSessionStatus(store, broker))
		r.Get("/sessions/{id}/leaderboard", handleOperatorSessionLeaderboard(store))
		r.Get("/sessions/{id}/report", handleOperatorSessionReport(store))
		r.Get("/sessions/{id}/live", handleLive(logger, store, broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
