package types

import "time"

// Channel is the outreach medium of an engagement
type Channel string

const (
	ChannelCall     Channel = "call"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelMeeting  Channel = "meeting"
)

// Engagement types
const (
	EngagementTypeFollowUp = "follow_up"
	EngagementTypeNote     = "note"
	EngagementTypeQuote    = "quote"
)

// Engagement is a logged outreach event on a lead or partner agent
type Engagement struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Channel        Channel    `json:"channel,omitempty"`
	LeadID         string     `json:"leadId,omitempty"`
	AgentID        string     `json:"agentId,omitempty"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	CreatedByName  string     `json:"createdByName,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	NextFollowUpAt *time.Time `json:"nextFollowUpAt,omitempty"` // metadata.nextFollowUpAt
	CreatedAt      time.Time  `json:"createdAt"`
}
