// Package memory provides concurrent in-memory implementations of the
// growth stores, suitable for tests and demos.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"growthkit/core"
	"growthkit/rules"
)

// Store is a concurrent in-memory EventStore, InviteStore, and
// CampaignStore.
type Store struct {
	mu        sync.RWMutex
	events    []core.Event
	nextID    int64
	invites   map[string][]core.Invite // keyed by lowercased referrer
	campaigns map[string]campaignEntry
	order     []string // campaign ids in insertion order
}

type campaignEntry struct {
	meta rules.CampaignMeta
	cfg  rules.Config
}

func New() *Store {
	return &Store{
		invites:   map[string][]core.Invite{},
		campaigns: map[string]campaignEntry{},
	}
}

// AddEvent records an event, assigning the next monotonic id.
func (s *Store) AddEvent(ethAddress string, typ core.EventType, status core.EventStatus, createdAt time.Time) core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev := core.Event{
		ID:         s.nextID,
		EthAddress: strings.ToLower(ethAddress),
		Type:       typ,
		Status:     status,
		CreatedAt:  createdAt,
	}
	s.events = append(s.events, ev)
	return ev
}

// AddInvite records a referral invitation.
func (s *Store) AddInvite(referrer, referee string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(referrer)
	s.invites[key] = append(s.invites[key], core.Invite{
		ReferrerEthAddress: key,
		RefereeEthAddress:  strings.ToLower(referee),
		CreatedAt:          createdAt,
	})
}

// PutCampaign stores or replaces a campaign's metadata and config.
func (s *Store) PutCampaign(meta rules.CampaignMeta, cfg rules.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[meta.ID]; !ok {
		s.order = append(s.order, meta.ID)
	}
	s.campaigns[meta.ID] = campaignEntry{meta: meta, cfg: cfg}
}

func (s *Store) FindEvents(_ context.Context, ethAddress string, statuses []core.EventStatus, window *rules.TimeWindow) ([]core.Event, error) {
	allowed := make(map[core.EventStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
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

func (s *Store) FindInvites(_ context.Context, referrerEthAddress string, createdBefore time.Time) ([]core.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Invite
	for _, inv := range s.invites[referrerEthAddress] {
		if !inv.CreatedAt.After(createdBefore) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (rules.CampaignMeta, rules.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.campaigns[id]
	if !ok {
		return rules.CampaignMeta{}, rules.Config{}, rules.ErrCampaignNotFound
	}
	return entry.meta, entry.cfg, nil
}

func (s *Store) ListCampaigns(_ context.Context) ([]rules.CampaignMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.CampaignMeta, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.campaigns[id].meta)
	}
	return out, nil
}

var _ rules.EventStore = (*Store)(nil)
var _ rules.InviteStore = (*Store)(nil)
var _ rules.CampaignStore = (*Store)(nil)
