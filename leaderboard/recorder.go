package leaderboard

import (
	"math/big"
	"sync"

	"growthkit/engine"
)

// Recorder maintains one board per campaign, fed from score events.
// A computed score carries the account's full reward set, so updates
// replace the previous total and recomputation never double counts.
type Recorder struct {
	currency string

	mu     sync.RWMutex
	boards map[string]Board
}

// NewRecorder creates a recorder ranking accounts by their total reward
// value in the given currency. Rewards in other currencies are ignored.
func NewRecorder(currency string) *Recorder {
	return &Recorder{currency: currency, boards: map[string]Board{}}
}

// OnEvent consumes a score event. Subscribe it on the scorer's bus.
func (r *Recorder) OnEvent(ev engine.ScoreEvent) {
	if ev.Type != engine.EventScoreComputed {
		return
	}
	total := big.NewInt(0)
	for _, reward := range ev.Score.Rewards {
		if reward.Value.Currency != r.currency {
			continue
		}
		units, err := reward.Value.AmountUnits()
		if err != nil {
			continue
		}
		total.Add(total, units)
	}
	r.board(ev.Score.CampaignID).Update(ev.Score.EthAddress, total)
}

func (r *Recorder) board(campaignID string) Board {
	r.mu.RLock()
	b, ok := r.boards[campaignID]
	r.mu.RUnlock()
	if ok {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.boards[campaignID]; ok {
		return b
	}
	b = NewSkipList()
	r.boards[campaignID] = b
	return b
}

// TopN returns the highest-earning accounts for a campaign.
func (r *Recorder) TopN(campaignID string, n int) []Entry {
	r.mu.RLock()
	b, ok := r.boards[campaignID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return b.TopN(n)
}

// Get returns an account's entry for a campaign.
func (r *Recorder) Get(campaignID, ethAddress string) (Entry, bool) {
	r.mu.RLock()
	b, ok := r.boards[campaignID]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	return b.Get(ethAddress)
}
