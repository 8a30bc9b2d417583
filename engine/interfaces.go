package engine

import (
	"context"
	"time"

	"growthkit/core"
)

// Score is the computed outcome of evaluating one account against a
// campaign.
type Score struct {
	CampaignID   string        `json:"campaign_id"`
	EthAddress   string        `json:"eth_address"`
	OnlyVerified bool          `json:"only_verified"`
	Level        int           `json:"level"`
	Rewards      []core.Reward `json:"rewards"`
	ComputedAt   time.Time     `json:"computed_at"`
}

// ScoreKey identifies a cached score snapshot.
type ScoreKey struct {
	CampaignID   string
	EthAddress   string
	OnlyVerified bool
}

// ScoreCache caches computed score snapshots. Get returns (nil, nil)
// on a miss.
type ScoreCache interface {
	Get(ctx context.Context, key ScoreKey) (*Score, error)
	Set(ctx context.Context, key ScoreKey, score Score) error
	Invalidate(ctx context.Context, key ScoreKey) error
}
