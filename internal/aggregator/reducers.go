package aggregator

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripdesk/backend/internal/types"
)

// KeyFunc extracts a grouping key from a lead
type KeyFunc func(types.Lead) string

// Rows maps a grouping key to its counters
type Rows map[string]*types.AggregateRow

// DestinationKey groups by destination name, falling back to its id
func DestinationKey(l types.Lead) string { return firstNonEmpty(l.DestinationName, l.DestinationID) }

// AgentKey groups by travel-agent partner name, falling back to its id
func AgentKey(l types.Lead) string { return firstNonEmpty(l.AgentName, l.AgentID) }

// TeamMemberKey groups by assigned user id, falling back to the user's name
func TeamMemberKey(l types.Lead) string { return firstNonEmpty(l.AssignedTo, l.AssignedToName) }

// GroupLeads folds leads into per-key counters in a single pass. A missing
// key groups under "Unknown"; no lead is ever dropped.
func GroupLeads(leads []types.Lead, key KeyFunc) Rows {
	rows := make(Rows)
	revenue := make(map[string]decimal.Decimal)

	for i := range leads {
		lead := &leads[i]
		k := keyOrUnknown(key(*lead))

		row, ok := rows[k]
		if !ok {
			row = &types.AggregateRow{Key: k}
			rows[k] = row
		}

		row.Total++
		switch lead.Stage {
		case types.StageClosedWon:
			row.Won++
			revenue[k] = revenue[k].Add(decimal.NewFromFloat(DealAmount(lead)))
		case types.StageClosedLost:
			row.Lost++
		}
	}

	for k, row := range rows {
		finalize(row, revenue[k])
	}
	return rows
}

// ByDestination groups leads by destination
func ByDestination(leads []types.Lead) Rows { return GroupLeads(leads, DestinationKey) }

// ByAgent groups leads by travel-agent partner
func ByAgent(leads []types.Lead) Rows { return GroupLeads(leads, AgentKey) }

// ByTeamMember groups leads by assigned team member
func ByTeamMember(leads []types.Lead) Rows { return GroupLeads(leads, TeamMemberKey) }

// Totals folds every lead into a single row keyed "All"
func Totals(leads []types.Lead) types.AggregateRow {
	rows := GroupLeads(leads, func(types.Lead) string { return "All" })
	if row, ok := rows["All"]; ok {
		return *row
	}
	return types.AggregateRow{Key: "All"}
}

// DealAmount picks the amount a won lead contributes to revenue: the last
// quoted amount, else the total quoted amount, else zero. A zero last quote
// falls through to the total.
func DealAmount(lead *types.Lead) float64 {
	if lead == nil {
		return 0
	}
	if v := lead.LastQuotedAmount; v != nil && *v != 0 && !math.IsNaN(*v) {
		return *v
	}
	if v := lead.TotalQuotedAmount; v != nil && *v != 0 && !math.IsNaN(*v) {
		return *v
	}
	return 0
}

// ConversionRate returns round(won/total*100), or 0 for an empty group
func ConversionRate(won, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(won) / float64(total) * 100))
}

// AverageDeal returns revenue/won rounded to the nearest unit with halves
// toward +Inf (-2.5 gives -2), or 0 when nothing was won
func AverageDeal(revenue float64, won int) int64 {
	return averageDeal(decimal.NewFromFloat(revenue), won)
}

var half = decimal.New(5, -1)

func averageDeal(revenue decimal.Decimal, won int) int64 {
	if won <= 0 {
		return 0
	}
	return revenue.Div(decimal.NewFromInt(int64(won))).Add(half).Floor().IntPart()
}

func finalize(row *types.AggregateRow, revenue decimal.Decimal) {
	row.Revenue = revenue.InexactFloat64()
	row.Conversion = ConversionRate(row.Won, row.Total)
	row.AvgDeal = averageDeal(revenue, row.Won)
}

// Sorted returns the rows by total descending, then key ascending
func Sorted(rows Rows) []types.AggregateRow {
	out := make([]types.AggregateRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CountBy is a plain frequency count by an extracted key. Empty keys count
// under "Unknown".
func CountBy[T any](items []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[keyOrUnknown(key(item))]++
	}
	return counts
}

// ChannelCounts counts engagements by channel
func ChannelCounts(engagements []types.Engagement) map[string]int {
	return CountBy(engagements, func(e types.Engagement) string { return string(e.Channel) })
}

// EngagementsByTeamMember counts engagements by the user who logged them
func EngagementsByTeamMember(engagements []types.Engagement) map[string]int {
	return CountBy(engagements, func(e types.Engagement) string { return e.CreatedBy })
}

// StageBreakdown counts leads by stage; values outside the enum count as "Unknown"
func StageBreakdown(leads []types.Lead) map[string]int {
	return CountBy(leads, func(l types.Lead) string { return l.Stage.Label() })
}

// DayTrend counts items per calendar day (YYYY-MM-DD in loc) in ascending
// day order. When limit > 0 only the most recent limit days are kept. Items
// with a zero time have no day and are skipped. A nil loc means UTC.
func DayTrend[T any](items []T, at func(T) time.Time, limit int, loc *time.Location) []types.TrendBucket {
	loc = locOrUTC(loc)

	counts := make(map[string]int)
	for _, item := range items {
		t := at(item)
		if t.IsZero() {
			continue
		}
		counts[t.In(loc).Format("2006-01-02")]++
	}

	buckets := make([]types.TrendBucket, 0, len(counts))
	for day, n := range counts {
		buckets = append(buckets, types.TrendBucket{Day: day, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Day < buckets[j].Day })

	if limit > 0 && len(buckets) > limit {
		buckets = buckets[len(buckets)-limit:]
	}
	return buckets
}

// DailyTrend counts engagements per creation day
func DailyTrend(engagements []types.Engagement, limit int, loc *time.Location) []types.TrendBucket {
	return DayTrend(engagements, func(e types.Engagement) time.Time { return e.CreatedAt }, limit, loc)
}

// LeadTrend counts leads per creation day
func LeadTrend(leads []types.Lead, limit int, loc *time.Location) []types.TrendBucket {
	return DayTrend(leads, func(l types.Lead) time.Time { return l.CreatedAt }, limit, loc)
}

func keyOrUnknown(k string) string {
	k = strings.TrimSpace(k)
	if k == "" {
		return types.UnknownLabel
	}
	return k
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
