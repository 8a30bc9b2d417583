package rules

import (
	"context"
	"time"

	"growthkit/core"
)

// TimeWindow restricts a query to events created within a half-open
// interval [Start, End). A zero Start means no lower bound.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window.
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	return t.Before(w.End)
}

// EventStore is read-only access to the chronologically ordered event
// history. Implementations must return events ordered by ascending id.
type EventStore interface {
	FindEvents(ctx context.Context, ethAddress string, statuses []core.EventStatus, window *TimeWindow) ([]core.Event, error)
}

// InviteStore is read-only access to referral invitations.
type InviteStore interface {
	FindInvites(ctx context.Context, referrerEthAddress string, createdBefore time.Time) ([]core.Invite, error)
}

// CampaignStore loads persisted campaign metadata and rule configuration.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (CampaignMeta, Config, error)
	ListCampaigns(ctx context.Context) ([]CampaignMeta, error)
}
