package storage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Store holds the raw lead, engagement and attendance documents. It never
// stores derived values.
type Store interface {
	SaveLead(ctx context.Context, lead types.Lead) error
	GetLead(ctx context.Context, id string) (types.Lead, error)
	ListLeads(ctx context.Context) ([]types.Lead, error)

	SaveEngagement(ctx context.Context, engagement types.Engagement) error
	ListEngagements(ctx context.Context) ([]types.Engagement, error)
	// ListEngagementsByLead returns a lead's engagements oldest first
	ListEngagementsByLead(ctx context.Context, leadID string) ([]types.Engagement, error)

	SaveAttendanceDay(ctx context.Context, day types.AttendanceDay) error
	// ListAttendance returns a user's days in date order. Empty bounds are open.
	ListAttendance(ctx context.Context, userID, from, to string) ([]types.AttendanceDay, error)

	TruncateAll(ctx context.Context) error
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}
