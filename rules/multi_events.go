package rules

import (
	"context"

	"growthkit/core"
)

// MultiEventsRule requires N distinct event types out of a candidate
// list. A pass of the rule consumes one occurrence of each of N types;
// repeated passes earn repeated rewards up to the limit.
//
// Rule evaluation considers events since the account joined the
// platform, but reward calculation only considers events within the
// campaign window. A rule may therefore pass while granting no reward.
type MultiEventsRule struct {
	baseRule
	eventTypes        []core.EventType
	numEventsRequired int
}

func newMultiEventsRule(meta CampaignMeta, levelID int, cfg RuleConfig) (*MultiEventsRule, error) {
	base, err := newBaseRule(meta, levelID, cfg)
	if err != nil {
		return nil, err
	}
	r := &MultiEventsRule{baseRule: base}

	if err := r.validateEventTypes(cfg.Config.EventTypes); err != nil {
		return nil, err
	}
	r.eventTypes = cfg.Config.EventTypes

	n := cfg.Config.NumEventsRequired
	if n <= 0 || n > len(r.eventTypes) {
		return nil, configErrorf("%s: missing or invalid numEventsRequired", r.str())
	}
	r.numEventsRequired = n
	return r, nil
}

func (r *MultiEventsRule) Class() RuleClass { return ClassMultiEvents }

// Evaluate passes when at least numEventsRequired distinct candidate
// types are present, regardless of per-type occurrence counts.
func (r *MultiEventsRule) Evaluate(_ context.Context, ethAddress string, events []core.Event) (bool, error) {
	tally := r.tallyEvents(ethAddress, r.eventTypes, events)
	return len(tally) >= r.numEventsRequired, nil
}

func (r *MultiEventsRule) Rewards(_ context.Context, ethAddress string, events []core.Event) ([]core.Reward, error) {
	if r.reward == nil {
		return nil, nil
	}
	n := r.numRewards(ethAddress, events)
	return r.repeatReward(n), nil
}

// numRewards runs greedy pick-N rounds over an owned copy of the tally.
// Each round consumes one occurrence of up to N distinct types and
// succeeds only if exactly N were consumed. Picks iterate the declared
// eventTypes order so reward counts are reproducible.
func (r *MultiEventsRule) numRewards(ethAddress string, events []core.Event) int {
	tally := r.tallyEvents(ethAddress, r.eventTypes, events)
	remaining := make(map[core.EventType]int, len(tally))
	for t, n := range tally {
		remaining[t] = n
	}

	numRewards := 0
	for numRewards < r.limit && r.pickN(remaining) {
		numRewards++
	}
	return numRewards
}

func (r *MultiEventsRule) pickN(remaining map[core.EventType]int) bool {
	picked := 0
	for _, t := range r.eventTypes {
		if remaining[t] > 0 {
			remaining[t]--
			picked++
		}
		if picked == r.numEventsRequired {
			break
		}
	}
	return picked == r.numEventsRequired
}
