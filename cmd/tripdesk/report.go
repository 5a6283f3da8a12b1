package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tripdesk/backend/internal/types"
	"github.com/tripdesk/backend/pkg/client"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard visible to a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewClient(viper.GetString("backend-url"), viper.GetString("token"))
			snap, err := c.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			renderReport(os.Stdout, snap)
			return nil
		},
	}

	cmd.Flags().String("token", "", "bearer token for /api")
	cmd.Flags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("token", cmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("json", cmd.Flags().Lookup("json"))
	return cmd
}

func renderReport(w io.Writer, snap *types.DashboardSnapshot) {
	fmt.Fprintf(w, "Dashboard at %s\n", snap.Timestamp.Format("2006-01-02 15:04:05 MST"))

	renderRows(w, "Totals", []types.AggregateRow{snap.Totals})
	renderRows(w, "Destinations", snap.ByDestination)
	renderRows(w, "Partner agents", snap.ByAgent)
	renderRows(w, "Team", snap.ByTeamMember)
	renderCounts(w, "Channel", snap.ChannelBreakdown)
	renderCounts(w, "Logged by", snap.EngagementsByTeamMember)
	renderCounts(w, "Health", snap.HealthBreakdown)
	renderCounts(w, "Next action", snap.NextActionBreakdown)
}

func renderRows(w io.Writer, title string, rows []types.AggregateRow) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Key", "Total", "Won", "Lost", "Conversion %", "Revenue", "Avg deal"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Key, r.Total, r.Won, r.Lost, r.Conversion, fmt.Sprintf("%.2f", r.Revenue), r.AvgDeal})
	}
	tw.Render()
}

func renderCounts(w io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{label, "Count"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, counts[k]})
	}
	tw.Render()
}
