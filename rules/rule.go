package rules

import (
	"context"
	"fmt"

	"growthkit/core"
)

// rule is the closed set of campaign rule variants. A rule answers two
// questions for an account: does its condition hold, and how many
// rewards has it produced.
type rule interface {
	// Class reports the rule's configuration variant.
	Class() RuleClass
	// GatesNextLevel reports whether the rule participates in the
	// condition to advance past its level. Rules that do not gate are
	// skipped during level qualification.
	GatesNextLevel() bool
	// Evaluate reports whether the rule's condition holds for the
	// account given its event history.
	Evaluate(ctx context.Context, ethAddress string, events []core.Event) (bool, error)
	// Rewards returns the rewards the rule has produced for the
	// account: numRewards copies of the rule's reward descriptor.
	Rewards(ctx context.Context, ethAddress string, events []core.Event) ([]core.Reward, error)
	// RewardValue returns the configured reward value, or nil when the
	// rule grants no reward.
	RewardValue() *core.RewardValue
}

// newRule builds a rule from its persisted configuration, failing fast
// on unknown classes or missing fields.
func newRule(meta CampaignMeta, levelID int, cfg RuleConfig, events EventStore, invites InviteStore) (rule, error) {
	switch cfg.Class {
	case ClassSingleEvent:
		return newSingleEventRule(meta, levelID, cfg)
	case ClassMultiEvents:
		return newMultiEventsRule(meta, levelID, cfg)
	case ClassReferral:
		return newReferralRule(meta, levelID, cfg, events, invites)
	default:
		return nil, configErrorf("campaign %s / level %d / rule %s: unexpected or missing rule class %q",
			meta.ID, levelID, cfg.ID, cfg.Class)
	}
}

// baseRule holds the configuration shared by every rule variant.
type baseRule struct {
	meta    CampaignMeta
	levelID int
	id      string

	limit              int
	nextLevelCondition bool
	rewardValue        *core.RewardValue
	reward             *core.Reward
}

func newBaseRule(meta CampaignMeta, levelID int, cfg RuleConfig) (baseRule, error) {
	r := baseRule{
		meta:               meta,
		levelID:            levelID,
		id:                 cfg.ID,
		nextLevelCondition: cfg.Config.NextLevelCondition,
	}

	if cfg.Config.Reward != nil && cfg.Config.Limit <= 0 {
		return baseRule{}, configErrorf("%s: missing limit", r.str())
	}
	r.limit = cfg.Config.Limit
	if r.limit > MaxNumRewardsPerRule {
		r.limit = MaxNumRewardsPerRule
	}

	if cfg.Config.Reward != nil {
		value := *cfg.Config.Reward
		reward := core.NewReward(meta.ID, levelID, cfg.ID, value)
		r.rewardValue = &value
		r.reward = &reward
	}
	return r, nil
}

func (r *baseRule) str() string {
	return fmt.Sprintf("campaign %s / level %d / rule %s", r.meta.ID, r.levelID, r.id)
}

func (r *baseRule) GatesNextLevel() bool { return r.nextLevelCondition }

func (r *baseRule) RewardValue() *core.RewardValue { return r.rewardValue }

// tallyEvents counts eligible events by type for the account. Only
// events matching the address, one of the given types, and a Logged or
// Verified status are counted.
func (r *baseRule) tallyEvents(ethAddress string, eventTypes []core.EventType, events []core.Event) map[core.EventType]int {
	eligible := make(map[core.EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		eligible[t] = true
	}
	tally := make(map[core.EventType]int)
	for _, ev := range events {
		if ev.EthAddress != ethAddress || !eligible[ev.Type] || !ev.Status.Eligible() {
			continue
		}
		tally[ev.Type]++
	}
	return tally
}

// repeatReward returns n copies of the rule's reward descriptor.
// Callers must not assume distinct identities per earned unit.
func (r *baseRule) repeatReward(n int) []core.Reward {
	if r.reward == nil || n <= 0 {
		return nil
	}
	out := make([]core.Reward, n)
	for i := range out {
		out[i] = *r.reward
	}
	return out
}

// validateEventTypes checks every type against the known enumeration.
func (r *baseRule) validateEventTypes(eventTypes []core.EventType) error {
	if len(eventTypes) == 0 {
		return configErrorf("%s: missing eventTypes field", r.str())
	}
	for _, t := range eventTypes {
		if !core.ValidEventType(t) {
			return configErrorf("%s: unknown eventType %s", r.str(), t)
		}
	}
	return nil
}
