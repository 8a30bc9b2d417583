package rules

import (
	"context"

	"growthkit/core"
)

// level is an ordered collection of rules, owned by its campaign.
type level struct {
	campaignID string
	id         int
	rules      []rule
}

func newLevel(meta CampaignMeta, levelID int, cfg LevelConfig, events EventStore, invites InviteStore) (*level, error) {
	l := &level{campaignID: meta.ID, id: levelID}
	for _, ruleCfg := range cfg.Rules {
		r, err := newRule(meta, levelID, ruleCfg, events, invites)
		if err != nil {
			return nil, err
		}
		l.rules = append(l.rules, r)
	}
	return l, nil
}

// qualifyForNextLevel short-circuits to false on the first failing
// gating rule. Non-gating rules are skipped; a level with no gating
// rules always qualifies.
func (l *level) qualifyForNextLevel(ctx context.Context, ethAddress string, events []core.Event) (bool, error) {
	for _, r := range l.rules {
		if !r.GatesNextLevel() {
			continue
		}
		ok, err := r.Evaluate(ctx, ethAddress, events)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// rewards concatenates every rule's rewards in rule order.
func (l *level) rewards(ctx context.Context, ethAddress string, events []core.Event) ([]core.Reward, error) {
	var out []core.Reward
	for _, r := range l.rules {
		rs, err := r.Rewards(ctx, ethAddress, events)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}
