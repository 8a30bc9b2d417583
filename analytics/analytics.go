// Package analytics tracks per-campaign reward distribution from the
// stream of computed scores: how many accounts participate, how much
// reward value has accrued, the level distribution, and whether a
// campaign has reached its global reward cap.
package analytics

import (
	"math/big"
	"sync"

	"growthkit/engine"
)

// Hook receives score events.
type Hook interface {
	OnEvent(ev engine.ScoreEvent)
}

// accountState is the latest snapshot we have seen for one account in
// one campaign. Scores are recomputed from scratch, so new snapshots
// replace old ones and the campaign total moves by the delta.
type accountState struct {
	amount  *big.Int
	rewards int
	level   int
}

type campaignState struct {
	accounts map[string]*accountState
	total    *big.Int
	rewards  int
}

// Tracker aggregates score events into per-campaign statistics.
type Tracker struct {
	currency string

	mu        sync.RWMutex
	campaigns map[string]*campaignState
	caps      map[string]*big.Int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCampaignCap sets a global reward cap for a campaign, in token
// base units. Snapshot reports CapReached once the campaign total
// meets or exceeds it.
func WithCampaignCap(campaignID string, capAmount *big.Int) Option {
	return func(t *Tracker) {
		t.caps[campaignID] = new(big.Int).Set(capAmount)
	}
}

// NewTracker creates a tracker counting reward value in the given
// currency. Rewards in other currencies are ignored.
func NewTracker(currency string, opts ...Option) *Tracker {
	t := &Tracker{
		currency:  currency,
		campaigns: map[string]*campaignState{},
		caps:      map[string]*big.Int{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnEvent consumes a score event. Subscribe it on the scorer's bus.
func (t *Tracker) OnEvent(ev engine.ScoreEvent) {
	if ev.Type != engine.EventScoreComputed {
		return
	}
	score := ev.Score

	amount := big.NewInt(0)
	for _, reward := range score.Rewards {
		if reward.Value.Currency != t.currency {
			continue
		}
		units, err := reward.Value.AmountUnits()
		if err != nil {
			continue
		}
		amount.Add(amount, units)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.campaigns[score.CampaignID]
	if !ok {
		c = &campaignState{accounts: map[string]*accountState{}, total: big.NewInt(0)}
		t.campaigns[score.CampaignID] = c
	}

	prev, seen := c.accounts[score.EthAddress]
	if seen {
		c.total.Sub(c.total, prev.amount)
		c.rewards -= prev.rewards
	}
	c.accounts[score.EthAddress] = &accountState{
		amount:  amount,
		rewards: len(score.Rewards),
		level:   score.Level,
	}
	c.total.Add(c.total, amount)
	c.rewards += len(score.Rewards)
}

// Snapshot is a point-in-time view of one campaign's reward stats.
type Snapshot struct {
	CampaignID  string      `json:"campaign_id"`
	Accounts    int         `json:"accounts"`
	Rewards     int         `json:"rewards"`
	TotalAmount string      `json:"total_amount"`
	Currency    string      `json:"currency"`
	LevelCounts map[int]int `json:"level_counts"`
	CapReached  bool        `json:"cap_reached"`
}

// CampaignSnapshot returns the current stats for one campaign.
func (t *Tracker) CampaignSnapshot(campaignID string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.campaigns[campaignID]
	if !ok {
		return Snapshot{}, false
	}
	return t.snapshotLocked(campaignID, c), true
}

// Snapshots returns current stats for all campaigns seen so far.
func (t *Tracker) Snapshots() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Snapshot, 0, len(t.campaigns))
	for id, c := range t.campaigns {
		out = append(out, t.snapshotLocked(id, c))
	}
	return out
}

// CapReached reports whether a campaign's reward total has met its cap.
// Campaigns without a configured cap never report true.
func (t *Tracker) CapReached(campaignID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.campaigns[campaignID]
	if !ok {
		return false
	}
	return t.capReachedLocked(campaignID, c)
}

func (t *Tracker) snapshotLocked(id string, c *campaignState) Snapshot {
	levels := make(map[int]int, 4)
	for _, a := range c.accounts {
		levels[a.level]++
	}
	return Snapshot{
		CampaignID:  id,
		Accounts:    len(c.accounts),
		Rewards:     c.rewards,
		TotalAmount: c.total.String(),
		Currency:    t.currency,
		LevelCounts: levels,
		CapReached:  t.capReachedLocked(id, c),
	}
}

func (t *Tracker) capReachedLocked(id string, c *campaignState) bool {
	capAmount, ok := t.caps[id]
	if !ok {
		return false
	}
	return c.total.Cmp(capAmount) >= 0
}

var _ Hook = (*Tracker)(nil)
