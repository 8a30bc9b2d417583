package rules

import (
	"context"
	"strings"

	"growthkit/core"
)

// Campaign is the top-level aggregate: an ordered sequence of levels
// plus campaign-wide time bounds. It is immutable after construction
// and safe for concurrent use; every evaluation is a pure query
// followed by in-memory computation.
type Campaign struct {
	meta      CampaignMeta
	numLevels int
	levels    []*level

	events  EventStore
	invites InviteStore
}

// NewCampaign builds a campaign from its persisted metadata and rule
// configuration. It fails fast with a ConfigError on invalid numLevels
// or any missing or malformed level/rule configuration, before any
// query executes.
func NewCampaign(meta CampaignMeta, cfg Config, events EventStore, invites InviteStore) (*Campaign, error) {
	if cfg.NumLevels <= 0 {
		return nil, configErrorf("campaign %s: invalid or missing numLevels field", meta.ID)
	}

	c := &Campaign{
		meta:      meta,
		numLevels: cfg.NumLevels,
		events:    events,
		invites:   invites,
	}
	for i := 0; i < cfg.NumLevels; i++ {
		if i >= len(cfg.Levels) {
			return nil, configErrorf("campaign %s: missing level %d", meta.ID, i)
		}
		lvl, err := newLevel(meta, i, cfg.Levels[i], events, invites)
		if err != nil {
			return nil, err
		}
		c.levels = append(c.levels, lvl)
	}
	return c, nil
}

// Meta returns the campaign's persisted metadata.
func (c *Campaign) Meta() CampaignMeta { return c.meta }

// NumLevels returns the number of configured levels.
func (c *Campaign) NumLevels() int { return c.numLevels }

// GetEvents reads the account's events, ordered by ascending id.
// When duringCampaign is set the query is restricted to the half-open
// window [startDate, capReachedDate ?? endDate). When onlyVerified is
// set only Verified events are returned, otherwise Logged and Verified.
func (c *Campaign) GetEvents(ctx context.Context, ethAddress string, duringCampaign, onlyVerified bool) ([]core.Event, error) {
	addr := strings.ToLower(ethAddress)

	statuses := core.EligibleStatuses
	if onlyVerified {
		statuses = []core.EventStatus{core.StatusVerified}
	}

	var window *TimeWindow
	if duringCampaign {
		window = &TimeWindow{Start: c.meta.StartDate, End: c.meta.EffectiveEndDate()}
	}

	return c.events.FindEvents(ctx, addr, statuses, window)
}

// GetCurrentLevel computes the level the account has reached. Level
// progression deliberately considers the account's entire history, not
// just the campaign window: conditions met in a prior campaign carry
// the level forward. The walk stops at the first level whose gating
// rules fail; an account passing every gate reaches numLevels-1.
func (c *Campaign) GetCurrentLevel(ctx context.Context, ethAddress string, onlyVerifiedEvents bool) (int, error) {
	addr := strings.ToLower(ethAddress)
	events, err := c.GetEvents(ctx, addr, false, onlyVerifiedEvents)
	if err != nil {
		return 0, err
	}

	lvl := 0
	for ; lvl < c.numLevels-1; lvl++ {
		ok, err := c.levels[lvl].qualifyForNextLevel(ctx, addr, events)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
	}
	return lvl, nil
}

// GetRewards computes the rewards the account has earned, in no
// specific order. Unlike level progression, reward accrual only
// considers events within the campaign window. Rewards accumulate from
// every level up to and including the current one and are not
// deduplicated: a rule awarding k units contributes k entries.
func (c *Campaign) GetRewards(ctx context.Context, ethAddress string, onlyVerifiedEvents bool) ([]core.Reward, error) {
	addr := strings.ToLower(ethAddress)
	events, err := c.GetEvents(ctx, addr, true, onlyVerifiedEvents)
	if err != nil {
		return nil, err
	}
	currentLevel, err := c.GetCurrentLevel(ctx, addr, onlyVerifiedEvents)
	if err != nil {
		return nil, err
	}

	var rewards []core.Reward
	for i := 0; i <= currentLevel; i++ {
		rs, err := c.levels[i].rewards(ctx, addr, events)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, rs...)
	}
	return rewards, nil
}

// ReferralRewardValue returns the reward value of the campaign's first
// referral rule, or nil when no level contains one.
func (c *Campaign) ReferralRewardValue() *core.RewardValue {
	for _, lvl := range c.levels {
		for _, r := range lvl.rules {
			if r.Class() == ClassReferral {
				return r.RewardValue()
			}
		}
	}
	return nil
}
