package engine

import (
	"context"
	"log/slog"
	"time"

	"growthkit/core"
	"growthkit/metrics"
	"growthkit/rules"
)

// Scorer wires campaign configuration, event history, caching, and the
// event bus into a cohesive scoring API. Evaluations for different
// accounts and campaigns are independent and may run concurrently.
type Scorer struct {
	campaigns rules.CampaignStore
	events    rules.EventStore
	invites   rules.InviteStore
	bus       *EventBus

	cache    ScoreCache
	cacheTTL time.Duration
}

// ScorerOption configures optional Scorer collaborators.
type ScorerOption func(*Scorer)

// WithCache enables score snapshot caching with the given freshness TTL.
func WithCache(cache ScoreCache, ttl time.Duration) ScorerOption {
	return func(s *Scorer) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func NewScorer(campaigns rules.CampaignStore, events rules.EventStore, invites rules.InviteStore, bus *EventBus, opts ...ScorerOption) *Scorer {
	if campaigns == nil || events == nil || invites == nil || bus == nil {
		panic("NewScorer requires non-nil campaign store, event store, invite store, and bus")
	}
	s := &Scorer{campaigns: campaigns, events: events, invites: invites, bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe convenience method.
func (s *Scorer) Subscribe(typ ScoreEventType, handler func(context.Context, ScoreEvent)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *Scorer) Publish(ctx context.Context, ev ScoreEvent) {
	s.bus.Publish(ctx, ev)
}

// Score evaluates an account against a campaign: current level plus all
// earned rewards. Results are cached when a cache is configured, and
// every fresh evaluation is published on the bus.
func (s *Scorer) Score(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) (Score, error) {
	start := time.Now()
	score, err := s.score(ctx, campaignID, ethAddress, onlyVerified)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordScoreDuration(status, time.Since(start).Seconds())
	return score, err
}

func (s *Scorer) score(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) (Score, error) {
	addr, err := core.NormalizeAddress(ethAddress)
	if err != nil {
		return Score{}, err
	}
	key := ScoreKey{CampaignID: campaignID, EthAddress: addr, OnlyVerified: onlyVerified}

	prev := s.cachedScore(ctx, key)
	if prev != nil && time.Since(prev.ComputedAt) < s.cacheTTL {
		metrics.RecordCacheLookup("hit")
		return *prev, nil
	}

	camp, err := s.buildCampaign(ctx, campaignID)
	if err != nil {
		return Score{}, err
	}

	level, err := camp.GetCurrentLevel(ctx, addr, onlyVerified)
	if err != nil {
		return Score{}, err
	}
	rewards, err := camp.GetRewards(ctx, addr, onlyVerified)
	if err != nil {
		return Score{}, err
	}

	score := Score{
		CampaignID:   campaignID,
		EthAddress:   addr,
		OnlyVerified: onlyVerified,
		Level:        level,
		Rewards:      rewards,
		ComputedAt:   time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, score); err != nil {
			slog.Warn("score cache set failed", "campaign", campaignID, "account", addr, "error", err)
		}
	}
	s.publishScore(ctx, score, prev)

	for _, r := range rewards {
		metrics.RecordRewards(campaignID, r.Value.Currency, 1)
	}
	return score, nil
}

// cachedScore returns the previous snapshot regardless of freshness;
// stale snapshots still serve as the baseline for change notifications.
func (s *Scorer) cachedScore(ctx context.Context, key ScoreKey) *Score {
	if s.cache == nil {
		return nil
	}
	prev, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheLookup("error")
		slog.Warn("score cache get failed", "campaign", key.CampaignID, "account", key.EthAddress, "error", err)
		return nil
	}
	switch {
	case prev == nil:
		metrics.RecordCacheLookup("miss")
	case time.Since(prev.ComputedAt) >= s.cacheTTL:
		metrics.RecordCacheLookup("stale")
	}
	return prev
}

func (s *Scorer) publishScore(ctx context.Context, score Score, prev *Score) {
	s.bus.Publish(ctx, newScoreEvent(EventScoreComputed, score))
	if prev != nil && score.Level > prev.Level {
		s.bus.Publish(ctx, newScoreEvent(EventLevelReached, score))
	}
	if (prev == nil && len(score.Rewards) > 0) || (prev != nil && len(score.Rewards) > len(prev.Rewards)) {
		s.bus.Publish(ctx, newScoreEvent(EventRewardEarned, score))
	}
}

// CurrentLevel evaluates only the account's level.
func (s *Scorer) CurrentLevel(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) (int, error) {
	addr, err := core.NormalizeAddress(ethAddress)
	if err != nil {
		return 0, err
	}
	camp, err := s.buildCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return camp.GetCurrentLevel(ctx, addr, onlyVerified)
}

// Rewards evaluates only the account's earned rewards.
func (s *Scorer) Rewards(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) ([]core.Reward, error) {
	addr, err := core.NormalizeAddress(ethAddress)
	if err != nil {
		return nil, err
	}
	camp, err := s.buildCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return camp.GetRewards(ctx, addr, onlyVerified)
}

// ReferralRewardValue returns the campaign's configured referral reward
// value, or nil when the campaign has no referral rule.
func (s *Scorer) ReferralRewardValue(ctx context.Context, campaignID string) (*core.RewardValue, error) {
	camp, err := s.buildCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return camp.ReferralRewardValue(), nil
}

// ListCampaigns exposes the campaign store's listing.
func (s *Scorer) ListCampaigns(ctx context.Context) ([]rules.CampaignMeta, error) {
	return s.campaigns.ListCampaigns(ctx)
}

// Invalidate drops cached snapshots for an account in a campaign, for
// both verification modes.
func (s *Scorer) Invalidate(ctx context.Context, campaignID, ethAddress string) error {
	if s.cache == nil {
		return nil
	}
	addr, err := core.NormalizeAddress(ethAddress)
	if err != nil {
		return err
	}
	for _, onlyVerified := range []bool{false, true} {
		key := ScoreKey{CampaignID: campaignID, EthAddress: addr, OnlyVerified: onlyVerified}
		if err := s.cache.Invalidate(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scorer) buildCampaign(ctx context.Context, campaignID string) (*rules.Campaign, error) {
	meta, cfg, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return rules.NewCampaign(meta, cfg, s.events, s.invites)
}

func (s *Scorer) Close() { s.bus.Close() }
