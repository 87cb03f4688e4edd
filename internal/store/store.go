package store

import (
	"context"

	"candidature-ai/pkg/models"
)

// HistoryLimit is the number of past generations returned to a caller
const HistoryLimit = 50

// Repository is everything the service reads and writes in the database
type Repository interface {
	GetProfile(ctx context.Context, userID string) (*models.SubscriberProfile, error)
	// Record inserts rec and, when claimFreePack is set, flips the caller's
	// free_pack_used flag in the same transaction. The flag must still be
	// false, otherwise nothing is written and FreeLimitReached is returned.
	Record(ctx context.Context, rec models.GenerationRecord, claimFreePack bool) (string, error)
	ListGenerations(ctx context.Context, userID string, limit int) ([]models.GenerationRecord, error)
	GetGeneration(ctx context.Context, userID, id string) (*models.GenerationRecord, error)
	// GetDefaults returns nil without error when the user saved nothing
	GetDefaults(ctx context.Context, userID string) (*models.FormDefaults, error)
	SaveDefaults(ctx context.Context, userID string, data map[string]interface{}) error
	Ping(ctx context.Context) error
	Close()
}
