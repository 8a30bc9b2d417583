package growth

import (
	"context"
	"testing"
	"time"

	"growthkit/adapters/memory"
	"growthkit/core"
	"growthkit/engine"
	"growthkit/realtime"
	"growthkit/rules"
)

const alice = "0x1111111111111111111111111111111111111111"

var (
	campaignStart = time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	campaignEnd   = time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.PutCampaign(
		rules.CampaignMeta{ID: "march", StartDate: campaignStart, EndDate: campaignEnd},
		rules.Config{
			NumLevels: 1,
			Levels: []rules.LevelConfig{
				{Rules: []rules.RuleConfig{
					{ID: "Email", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType: core.EmailVerified,
						Reward:    &core.RewardValue{Amount: "10", Currency: "OGN"},
						Limit:     1,
					}},
				}},
			},
		},
	)
	store.AddEvent(alice, core.EmailVerified, core.StatusVerified, campaignStart.AddDate(0, 0, 5))
	return store
}

func TestNewDefaultsAndScoring(t *testing.T) {
	store := seedStore(t)

	var seen []engine.ScoreEvent
	scorer := New(
		WithCampaignStore(store),
		WithEventStore(store),
		WithInviteStore(store),
		WithDispatchMode(engine.DispatchSync),
		WithObserver(func(ev engine.ScoreEvent) { seen = append(seen, ev) }),
	)
	defer scorer.Close()

	score, err := scorer.Score(context.Background(), "march", alice, false)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Level != 0 || len(score.Rewards) != 1 {
		t.Fatalf("unexpected score: %+v", score)
	}
	if score.Rewards[0].Value.Amount != "10" {
		t.Fatalf("unexpected reward: %+v", score.Rewards[0])
	}

	var computed, earned bool
	for _, ev := range seen {
		switch ev.Type {
		case engine.EventScoreComputed:
			computed = true
		case engine.EventRewardEarned:
			earned = true
		}
	}
	if !computed {
		t.Fatal("expected score_computed event")
	}
	if !earned {
		t.Fatal("expected reward_earned event for first evaluation with rewards")
	}
}

func TestNewBridgesRealtimeHub(t *testing.T) {
	store := seedStore(t)
	hub := realtime.NewHub()
	_, ch := hub.Subscribe(8)

	scorer := New(
		WithCampaignStore(store),
		WithEventStore(store),
		WithInviteStore(store),
		WithDispatchMode(engine.DispatchSync),
		WithRealtime(hub),
	)
	defer scorer.Close()

	if _, err := scorer.Score(context.Background(), "march", alice, false); err != nil {
		t.Fatalf("score: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != engine.EventScoreComputed {
			t.Fatalf("unexpected event type: %s", ev.Type)
		}
		if ev.Score.EthAddress != alice {
			t.Fatalf("unexpected address: %s", ev.Score.EthAddress)
		}
	default:
		t.Fatal("expected broadcast event on hub")
	}
}

func TestNewDefaultStoresUsable(t *testing.T) {
	scorer := New(WithDispatchMode(engine.DispatchSync))
	defer scorer.Close()

	campaigns, err := scorer.ListCampaigns(context.Background())
	if err != nil {
		t.Fatalf("list campaigns: %v", err)
	}
	if len(campaigns) != 0 {
		t.Fatalf("expected empty default store, got %+v", campaigns)
	}
}
