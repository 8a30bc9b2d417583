package rules

import (
	"context"
	"time"

	"growthkit/core"
)

// fakeStore is an in-memory EventStore/InviteStore for tests.
type fakeStore struct {
	events  []core.Event
	invites []core.Invite
	nextID  int64
}

func (s *fakeStore) addEvent(addr string, t core.EventType, status core.EventStatus, at time.Time) {
	s.nextID++
	s.events = append(s.events, core.Event{
		ID:         s.nextID,
		EthAddress: addr,
		Type:       t,
		Status:     status,
		CreatedAt:  at,
	})
}

func (s *fakeStore) addInvite(referrer, referee string, at time.Time) {
	s.invites = append(s.invites, core.Invite{
		ReferrerEthAddress: referrer,
		RefereeEthAddress:  referee,
		CreatedAt:          at,
	})
}

func (s *fakeStore) FindEvents(_ context.Context, ethAddress string, statuses []core.EventStatus, window *TimeWindow) ([]core.Event, error) {
	allowed := make(map[core.EventStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []core.Event
	for _, ev := range s.events {
		if ev.EthAddress != ethAddress || !allowed[ev.Status] {
			continue
		}
		if window != nil && !window.Contains(ev.CreatedAt) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *fakeStore) FindInvites(_ context.Context, referrerEthAddress string, createdBefore time.Time) ([]core.Invite, error) {
	var out []core.Invite
	for _, inv := range s.invites {
		if inv.ReferrerEthAddress == referrerEthAddress && !inv.CreatedAt.After(createdBefore) {
			out = append(out, inv)
		}
	}
	return out, nil
}

var (
	campaignStart = time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	campaignEnd   = time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)
)

func testMeta() CampaignMeta {
	return CampaignMeta{
		ID:        "march",
		StartDate: campaignStart,
		EndDate:   campaignEnd,
	}
}

func inWindow(offset time.Duration) time.Time {
	return campaignStart.Add(time.Hour + offset)
}
