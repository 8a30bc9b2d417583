package rules

import (
	"context"

	"growthkit/core"
)

// SingleEventRule passes when one specific event type has occurred at
// least once, and pays one reward per occurrence up to the limit.
type SingleEventRule struct {
	baseRule
	eventType core.EventType
}

func newSingleEventRule(meta CampaignMeta, levelID int, cfg RuleConfig) (*SingleEventRule, error) {
	base, err := newBaseRule(meta, levelID, cfg)
	if err != nil {
		return nil, err
	}
	r := &SingleEventRule{baseRule: base}

	switch t := cfg.Config.EventType; {
	case t == "":
		return nil, configErrorf("%s: missing eventType field", r.str())
	case !core.ValidEventType(t):
		return nil, configErrorf("%s: unknown eventType %s", r.str(), t)
	default:
		r.eventType = t
	}
	return r, nil
}

func (r *SingleEventRule) Class() RuleClass { return ClassSingleEvent }

func (r *SingleEventRule) Evaluate(_ context.Context, ethAddress string, events []core.Event) (bool, error) {
	tally := r.tallyEvents(ethAddress, []core.EventType{r.eventType}, events)
	return tally[r.eventType] > 0, nil
}

func (r *SingleEventRule) Rewards(_ context.Context, ethAddress string, events []core.Event) ([]core.Reward, error) {
	if r.reward == nil {
		return nil, nil
	}
	n := r.numRewards(ethAddress, events)
	return r.repeatReward(n), nil
}

// numRewards is min(occurrences, limit); zero if the event never occurred.
func (r *SingleEventRule) numRewards(ethAddress string, events []core.Event) int {
	tally := r.tallyEvents(ethAddress, []core.EventType{r.eventType}, events)
	n := tally[r.eventType]
	if n > r.limit {
		n = r.limit
	}
	return n
}
