package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/attendance"
	"github.com/tripdesk/backend/internal/types"
)

// Member is a generated team member
type Member struct {
	ID   string
	Name string
}

// Partner is a generated travel-agent partner
type Partner struct {
	ID   string
	Name string
}

// Dataset is everything one seeding run produces
type Dataset struct {
	Leads       []types.Lead
	Engagements []types.Engagement
	Attendance  []types.AttendanceDay
}

var destinations = []string{"Bali", "Goa", "Maldives", "Dubai", "Kerala", "Thailand", "Switzerland", "Ladakh"}

// Destination popularity, same order as destinations
var destinationWeights = []int{20, 18, 12, 14, 12, 10, 6, 8}

var stages = []types.Stage{
	types.StageNew,
	types.StageFollowUp,
	types.StageQuoted,
	types.StageClosedWon,
	types.StageClosedLost,
}

// Distribution: 20% new, 25% follow-up, 20% quoted, 20% won, 15% lost
var stageWeights = []int{20, 25, 20, 20, 15}

var channels = []types.Channel{types.ChannelCall, types.ChannelEmail, types.ChannelWhatsApp, types.ChannelMeeting}

var channelWeights = []int{35, 25, 30, 10}

var memberNames = []string{"Asha", "Rohan", "Meera", "Vikram", "Neha", "Karan"}

var partnerNames = []string{"Wanderlust Tours", "Sunrise Holidays", "Blue Lagoon Travels", "Peak Adventures"}

// Generator creates realistic CRM records from a seeded random source, so
// the same seed and clock always produce the same dataset
type Generator struct {
	rng      *rand.Rand
	now      time.Time
	members  []Member
	partners []Partner
}

// NewGenerator creates a generator anchored at now
func NewGenerator(seed int64, now time.Time) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
	for i, name := range memberNames {
		g.members = append(g.members, Member{ID: fmt.Sprintf("usr-%02d", i+1), Name: name})
	}
	for i, name := range partnerNames {
		g.partners = append(g.partners, Partner{ID: fmt.Sprintf("agt-%02d", i+1), Name: name})
	}
	return g
}

// Members returns the generated team members
func (g *Generator) Members() []Member {
	return g.members
}

// Generate builds leads, their engagements and attendance for the last days
func (g *Generator) Generate(leadCount, days int) Dataset {
	leads := g.Leads(leadCount)
	return Dataset{
		Leads:       leads,
		Engagements: g.Engagements(leads),
		Attendance:  g.Attendance(days),
	}
}

// Leads creates count leads spread over the last 30 days
func (g *Generator) Leads(count int) []types.Lead {
	leads := make([]types.Lead, 0, count)

	for i := 0; i < count; i++ {
		stage := weightedChoice(g.rng, stages, stageWeights)
		member := g.members[g.rng.Intn(len(g.members))]
		created := g.now.Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour)

		lead := types.Lead{
			ID:              g.id(),
			Stage:           stage,
			DestinationName: weightedChoice(g.rng, destinations, destinationWeights),
			AssignedTo:      member.ID,
			AssignedToName:  member.Name,
			CreatedAt:       created,
		}

		// About half the leads come through a partner agent
		if g.rng.Intn(2) == 0 {
			p := g.partners[g.rng.Intn(len(g.partners))]
			lead.AgentID, lead.AgentName = p.ID, p.Name
		}

		if stage == types.StageQuoted || stage == types.StageClosedWon || stage == types.StageClosedLost {
			quote := float64(20000 + g.rng.Intn(180)*1000)
			total := quote + float64(g.rng.Intn(20)*1000)
			lead.LastQuotedAmount = &quote
			lead.TotalQuotedAmount = &total
		}

		last := created.Add(time.Duration(g.rng.Int63n(int64(g.now.Sub(created)) + 1)))
		lead.LastActivityAt = &last

		if stage != types.StageClosedWon && stage != types.StageClosedLost {
			// due between two days ago and five days ahead
			due := g.now.Add(time.Duration(g.rng.Intn(7*24)-48) * time.Hour)
			lead.NextActionDueAt = &due
		}

		leads = append(leads, lead)
	}
	return leads
}

// Engagements logs one to four engagements per lead after its creation
func (g *Generator) Engagements(leads []types.Lead) []types.Engagement {
	var out []types.Engagement

	for _, lead := range leads {
		n := 1 + g.rng.Intn(4)
		span := g.now.Sub(lead.CreatedAt)
		for i := 0; i < n; i++ {
			e := types.Engagement{
				ID:            g.id(),
				Type:          types.EngagementTypeNote,
				Channel:       weightedChoice(g.rng, channels, channelWeights),
				LeadID:        lead.ID,
				AgentID:       lead.AgentID,
				CreatedBy:     lead.AssignedTo,
				CreatedByName: lead.AssignedToName,
				CreatedAt:     lead.CreatedAt.Add(time.Duration(g.rng.Int63n(int64(span) + 1))),
			}
			if g.rng.Intn(3) == 0 {
				e.Type = types.EngagementTypeFollowUp
				next := g.now.Add(time.Duration(1+g.rng.Intn(10*24)) * time.Hour)
				e.NextFollowUpAt = &next
			}
			out = append(out, e)
		}
	}
	return out
}

// Attendance creates one day per member for each of the last days
func (g *Generator) Attendance(days int) []types.AttendanceDay {
	var out []types.AttendanceDay

	today := time.Date(g.now.Year(), g.now.Month(), g.now.Day(), 0, 0, 0, 0, g.now.Location())
	for d := days; d >= 1; d-- {
		date := today.AddDate(0, 0, -d)
		for _, m := range g.members {
			out = append(out, g.attendanceDay(m, date))
		}
	}
	return out
}

func (g *Generator) attendanceDay(m Member, date time.Time) types.AttendanceDay {
	day := types.AttendanceDay{UserID: m.ID, Date: date.Format("2006-01-02")}

	switch roll := g.rng.Intn(100); {
	case roll < 5:
		day.IsLeave = true
		return day
	case roll < 8:
		day.IsHoliday = true
		if g.rng.Intn(3) == 0 {
			day.WorkedOnHoliday = true
		} else {
			return day
		}
	}

	checkIn := date.Add(9*time.Hour + time.Duration(g.rng.Intn(60))*time.Minute)
	lunch := checkIn.Add(time.Duration(180+g.rng.Intn(60)) * time.Minute)
	back := lunch.Add(45 * time.Minute)
	checkOut := back.Add(time.Duration(60+g.rng.Intn(240)) * time.Minute)

	day.Sessions = []types.WorkSession{
		{CheckIn: checkIn, CheckOut: &lunch},
		{CheckIn: back, CheckOut: &checkOut},
	}
	day.TotalMinutes = attendance.WorkedMinutes(day.Sessions)
	if day.TotalMinutes < attendance.FullDayMinutes && g.rng.Intn(10) == 0 {
		day.IsRegularized = true
	}
	return day
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// weightedChoice selects an item based on weights
func weightedChoice[T any](rng *rand.Rand, items []T, weights []int) T {
	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	choice := rng.Intn(totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if choice < cumulative {
			return items[i]
		}
	}
	return items[0]
}
