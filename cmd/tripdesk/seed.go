package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tripdesk/backend/internal/seed"
	"github.com/tripdesk/backend/internal/types"
	"github.com/tripdesk/backend/pkg/client"
)

const seedBatchSize = 100

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate CRM records and post them to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			seedValue := viper.GetInt64("seed")
			if seedValue == 0 {
				seedValue = time.Now().UnixNano()
			}

			leads := viper.GetInt("leads")
			if leads < 0 {
				return fmt.Errorf("--leads must not be negative")
			}

			gen := seed.NewGenerator(seedValue, time.Now())
			data := gen.Generate(leads, viper.GetInt("attendance-days"))

			c := client.NewClient(viper.GetString("backend-url"), "")
			return postDataset(cmd.Context(), c, data, log.Logger.With().Int64("seed", seedValue).Logger())
		},
	}

	cmd.Flags().Int("leads", 200, "number of leads to generate")
	cmd.Flags().Int64("seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().Int("attendance-days", 14, "days of attendance per team member")
	_ = viper.BindPFlag("leads", cmd.Flags().Lookup("leads"))
	_ = viper.BindPFlag("seed", cmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("attendance-days", cmd.Flags().Lookup("attendance-days"))
	return cmd
}

// ingester is the slice of the backend client the seeder needs
type ingester interface {
	PostLeads(ctx context.Context, leads []types.Lead) (*client.IngestResult, error)
	PostEngagements(ctx context.Context, engagements []types.Engagement) (*client.IngestResult, error)
	PostAttendance(ctx context.Context, days []types.AttendanceDay) (*client.IngestResult, error)
}

func postDataset(ctx context.Context, c ingester, data seed.Dataset, logger zerolog.Logger) error {
	n, err := postBatches(ctx, data.Leads, c.PostLeads)
	if err != nil {
		return fmt.Errorf("failed to post leads: %w", err)
	}
	logger.Info().Int("count", n).Msg("leads posted")

	n, err = postBatches(ctx, data.Engagements, c.PostEngagements)
	if err != nil {
		return fmt.Errorf("failed to post engagements: %w", err)
	}
	logger.Info().Int("count", n).Msg("engagements posted")

	n, err = postBatches(ctx, data.Attendance, c.PostAttendance)
	if err != nil {
		return fmt.Errorf("failed to post attendance: %w", err)
	}
	logger.Info().Int("count", n).Msg("attendance days posted")
	return nil
}

// postBatches sends items in fixed-size batches and returns the number the
// backend accepted
func postBatches[T any](ctx context.Context, items []T, post func(context.Context, []T) (*client.IngestResult, error)) (int, error) {
	accepted := 0
	for i := 0; i < len(items); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(items) {
			end = len(items)
		}
		result, err := post(ctx, items[i:end])
		if err != nil {
			return accepted, err
		}
		accepted += result.Accepted
	}
	return accepted, nil
}
