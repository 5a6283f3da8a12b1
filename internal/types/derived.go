package types

// HealthColor is the display color attached to a health tier
type HealthColor string

const (
	ColorGreen  HealthColor = "green"
	ColorRed    HealthColor = "red"
	ColorOrange HealthColor = "orange"
	ColorGray   HealthColor = "gray"
)

// Health labels
const (
	HealthUnknown = "Unknown"
	HealthWon     = "Won"
	HealthLost    = "Lost"
	HealthAtRisk  = "At Risk"
	HealthCold    = "Cold"
	HealthHealthy = "Healthy"
)

// HealthResult is the derived health tier of a lead
type HealthResult struct {
	Label string      `json:"label"`
	Color HealthColor `json:"color"`
}

// NextActionStatus buckets a lead's scheduled next action by timing
type NextActionStatus string

const (
	NextActionNone     NextActionStatus = "none"
	NextActionOverdue  NextActionStatus = "overdue"
	NextActionToday    NextActionStatus = "today"
	NextActionUpcoming NextActionStatus = "upcoming"
)

// AggregateRow holds the counters of one grouping key
type AggregateRow struct {
	Key        string  `json:"key"`
	Total      int     `json:"total"`
	Won        int     `json:"won"`
	Lost       int     `json:"lost"`
	Revenue    float64 `json:"revenue"`
	Conversion int     `json:"conversion"` // 0-100
	AvgDeal    int64   `json:"avgDeal"`
}

// TrendBucket is the count of records created on one calendar day
type TrendBucket struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}
