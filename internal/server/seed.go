package server

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/Impact2025/impacttour/internal/quest"
)

// SeedDemo creates a demo operator, a small Amsterdam tour, and a lobby
// session on an empty database. Idempotent: does nothing once any tour
// exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	existing, err := store.ListTours(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := store.db.ExecContext(ctx, `
		INSERT INTO operators (id, email, password_hash)
		VALUES (?, 'demo@impacttour.nl', ?)
	`, newID(), string(hash)); err != nil {
		return err
	}

	tour, err := store.CreateTour(ctx, TourRequest{
		Name:        "Canal Ring Discovery",
		City:        "Amsterdam",
		Description: "Three stops along the canal ring.",
		Checkpoints: []CheckpointRequest{
			{
				Name: "Westerkerk", Lat: 52.3745, Lng: 4.8840, RadiusM: 50,
				MissionType:   string(quest.MissionText),
				MissionPrompt: "Ask a stranger what this tower means to them and write down their answer.",
				Caps:          quest.DimensionScores{Connection: 15, Meaning: 10},
			},
			{
				Name: "Magere Brug", Lat: 52.3638, Lng: 4.9020, RadiusM: 50,
				MissionType:   string(quest.MissionPhoto),
				MissionPrompt: "Take a team photo where everyone imitates the bridge.",
				Caps:          quest.DimensionScores{Joy: 15, Connection: 10},
				PhotoBonus:    5,
			},
			{
				Name: "Hortus Botanicus", Lat: 52.3668, Lng: 4.9078, RadiusM: 60,
				MissionType:   string(quest.MissionText),
				MissionPrompt: "Find a plant none of you can name and describe what it might teach you.",
				Caps:          quest.DimensionScores{Growth: 15, Meaning: 10},
			},
		},
	})
	if err != nil {
		return err
	}

	session, err := store.CreateSession(ctx, SessionRequest{TourID: tour.ID, TestMode: true}, newJoinCode())
	if err != nil {
		return err
	}
	if err := store.UpdateSessionStatus(ctx, session.ID, quest.StatusDraft, quest.StatusLobby); err != nil {
		return err
	}

	logger.Info("demo data seeded", "tour", tour.Name, "join_code", session.JoinCode)
	return nil
}
