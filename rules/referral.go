package rules

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"growthkit/core"
)

// refereeFanout bounds concurrent referee history lookups.
const refereeFanout = 8

// ReferralRule rewards a referrer when a referred account (referee)
// completes a required set of events. The required event types must all
// appear in the referee's history, and at least one of the referee's
// events must fall within the campaign window.
//
// The reward is credited in whichever campaign window the referee
// completes the conditions: a referee who finishes during a later
// campaign credits the referrer in that campaign.
type ReferralRule struct {
	baseRule
	eventTypes []core.EventType

	events  EventStore
	invites InviteStore
}

func newReferralRule(meta CampaignMeta, levelID int, cfg RuleConfig, events EventStore, invites InviteStore) (*ReferralRule, error) {
	base, err := newBaseRule(meta, levelID, cfg)
	if err != nil {
		return nil, err
	}
	r := &ReferralRule{baseRule: base, events: events, invites: invites}

	if err := r.validateEventTypes(cfg.Config.EventTypes); err != nil {
		return nil, err
	}
	r.eventTypes = cfg.Config.EventTypes
	return r, nil
}

func (r *ReferralRule) Class() RuleClass { return ClassReferral }

// Evaluate passes when the referrer qualifies for at least one referral
// reward in the campaign.
func (r *ReferralRule) Evaluate(ctx context.Context, ethAddress string, events []core.Event) (bool, error) {
	rewards, err := r.Rewards(ctx, ethAddress, events)
	if err != nil {
		return false, err
	}
	return len(rewards) > 0, nil
}

// Rewards walks the referral graph: referrer -> invites -> referee ->
// referee's events. Referee lookups share no state and fan out
// concurrently; results keep invite order so the limit cuts off
// deterministically.
func (r *ReferralRule) Rewards(ctx context.Context, ethAddress string, _ []core.Event) ([]core.Reward, error) {
	if r.reward == nil {
		return nil, nil
	}

	invites, err := r.invites.FindInvites(ctx, strings.ToLower(ethAddress), r.meta.EndDate)
	if err != nil {
		return nil, err
	}

	results := make([]*core.Reward, len(invites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refereeFanout)
	for i, invite := range invites {
		i, invite := i, invite
		g.Go(func() error {
			reward, err := r.refereeReward(gctx, ethAddress, invite.RefereeEthAddress)
			if err != nil {
				return err
			}
			results[i] = reward
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rewards []core.Reward
	for _, reward := range results {
		if reward == nil {
			continue
		}
		rewards = append(rewards, *reward)
		if len(rewards) >= r.limit {
			break
		}
	}
	return rewards, nil
}

// refereeReward checks one referee against the rule's conditions and
// returns their reward, or nil when they do not qualify. Incomplete
// referees are skipped, never fatal.
func (r *ReferralRule) refereeReward(ctx context.Context, referrer, referee string) (*core.Reward, error) {
	addr := strings.ToLower(referee)

	// Full referee history up to the end of the campaign.
	window := &TimeWindow{End: r.meta.EndDate}
	events, err := r.events.FindEvents(ctx, addr, core.EligibleStatuses, window)
	if err != nil {
		return nil, err
	}

	campaignWindow := TimeWindow{Start: r.meta.StartDate, End: r.meta.EndDate}
	seen := make(map[core.EventType]bool, len(events))
	inWindow := false
	for _, ev := range events {
		seen[ev.Type] = true
		if campaignWindow.Contains(ev.CreatedAt) {
			inWindow = true
		}
	}

	for _, t := range r.eventTypes {
		if !seen[t] {
			slog.Debug("referee misses some referral events, skipping",
				"rule", r.str(), "referee", addr, "missing", string(t))
			return nil, nil
		}
	}
	if !inWindow {
		slog.Debug("referee has no event in campaign window, skipping",
			"rule", r.str(), "referee", addr)
		return nil, nil
	}

	slog.Debug("referrer earns referral reward",
		"rule", r.str(), "referrer", referrer, "referee", addr)
	reward := core.NewReferralReward(r.meta.ID, r.levelID, r.id, *r.rewardValue, addr)
	return &reward, nil
}
