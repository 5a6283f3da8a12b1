package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/metrics"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/types"
)

// Broadcaster receives each freshly computed snapshot
type Broadcaster interface {
	BroadcastSnapshot(snap *types.DashboardSnapshot)
	ClientCount() int
}

// Aggregator periodically recomputes the dashboard from the store and
// pushes it to connected clients. Nothing is carried between ticks.
type Aggregator struct {
	store    storage.Store
	hub      Broadcaster
	interval time.Duration
	opts     SnapshotOptions
	logger   zerolog.Logger

	now func() time.Time
}

// NewAggregator creates a new aggregator
func NewAggregator(store storage.Store, hub Broadcaster, interval time.Duration, opts SnapshotOptions, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		hub:      hub,
		interval: interval,
		opts:     opts,
		logger:   logger.With().Str("component", "aggregator").Logger(),
		now:      time.Now,
	}
}

// Start runs the snapshot loop until ctx is cancelled
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	m := metrics.Get()
	a.logger.Info().Dur("interval", a.interval).Msg("aggregator started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("aggregator stopped")
			return

		case <-ticker.C:
			cycleStart := time.Now()

			snap, err := a.Snapshot(ctx)
			if err != nil {
				a.logger.Error().Err(err).Msg("failed to build snapshot")
				m.RecordSnapshotError()
				continue
			}

			m.UpdateLeadStats(snap.Totals.Total, snap.HealthBreakdown, snap.StageBreakdown)
			a.hub.BroadcastSnapshot(&snap)
			m.RecordSnapshotCycle(time.Since(cycleStart))

			a.logger.Debug().
				Int("leads", snap.Totals.Total).
				Int("members", len(snap.Members)).
				Int("clients", a.hub.ClientCount()).
				Dur("duration", time.Since(cycleStart)).
				Msg("snapshot broadcasted")
		}
	}
}

// Snapshot loads the current records and computes a scoped snapshot
func (a *Aggregator) Snapshot(ctx context.Context) (types.DashboardSnapshot, error) {
	leads, err := a.store.ListLeads(ctx)
	if err != nil {
		return types.DashboardSnapshot{}, fmt.Errorf("list leads: %w", err)
	}
	engagements, err := a.store.ListEngagements(ctx)
	if err != nil {
		return types.DashboardSnapshot{}, fmt.Errorf("list engagements: %w", err)
	}

	return BuildScoped(leads, engagements, a.now(), a.opts), nil
}
