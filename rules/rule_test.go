package rules

import (
	"context"
	"reflect"
	"testing"
	"time"

	"growthkit/core"
)

const bob = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func singleRuleConfig(limit int) RuleConfig {
	return RuleConfig{
		ID:    "listings",
		Class: ClassSingleEvent,
		Config: RuleParams{
			EventType: core.ListingCreated,
			Reward:    &core.RewardValue{Amount: "5", Currency: "OGN"},
			Limit:     limit,
		},
	}
}

func TestSingleEventRuleLimit(t *testing.T) {
	const limit = 3
	r, err := newSingleEventRule(testMeta(), 0, singleRuleConfig(limit))
	if err != nil {
		t.Fatal(err)
	}

	for k := 0; k <= 5; k++ {
		var events []core.Event
		for i := 0; i < k; i++ {
			events = append(events, core.Event{
				ID: int64(i + 1), EthAddress: bob,
				Type: core.ListingCreated, Status: core.StatusVerified,
				CreatedAt: inWindow(time.Duration(i) * time.Minute),
			})
		}
		want := k
		if want > limit {
			want = limit
		}
		rewards, err := r.Rewards(context.Background(), bob, events)
		if err != nil {
			t.Fatal(err)
		}
		if len(rewards) != want {
			t.Fatalf("k=%d: want %d rewards, got %d", k, want, len(rewards))
		}
	}
}

func TestSingleEventRuleEvaluate(t *testing.T) {
	r, err := newSingleEventRule(testMeta(), 0, singleRuleConfig(1))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := r.Evaluate(context.Background(), bob, nil)
	if err != nil || ok {
		t.Fatalf("no events: got %v %v, want false", ok, err)
	}
	events := []core.Event{{
		ID: 1, EthAddress: bob, Type: core.ListingCreated,
		Status: core.StatusLogged, CreatedAt: inWindow(0),
	}}
	ok, err = r.Evaluate(context.Background(), bob, events)
	if err != nil || !ok {
		t.Fatalf("logged event: got %v %v, want true", ok, err)
	}
}

func TestTallyFiltersAddressStatusAndType(t *testing.T) {
	r, err := newSingleEventRule(testMeta(), 0, singleRuleConfig(10))
	if err != nil {
		t.Fatal(err)
	}
	events := []core.Event{
		{ID: 1, EthAddress: bob, Type: core.ListingCreated, Status: core.StatusVerified, CreatedAt: inWindow(0)},
		{ID: 2, EthAddress: alice, Type: core.ListingCreated, Status: core.StatusVerified, CreatedAt: inWindow(0)},
		{ID: 3, EthAddress: bob, Type: core.ListingSold, Status: core.StatusVerified, CreatedAt: inWindow(0)},
		{ID: 4, EthAddress: bob, Type: core.ListingCreated, Status: core.StatusFraud, CreatedAt: inWindow(0)},
	}
	rewards, err := r.Rewards(context.Background(), bob, events)
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 1 {
		t.Fatalf("want 1 reward for bob's single verified listing, got %d", len(rewards))
	}
}

func multiRuleConfig(types []core.EventType, n, limit int) RuleConfig {
	return RuleConfig{
		ID:    "combo",
		Class: ClassMultiEvents,
		Config: RuleParams{
			EventTypes:        types,
			NumEventsRequired: n,
			Reward:            &core.RewardValue{Amount: "50", Currency: "OGN"},
			Limit:             limit,
		},
	}
}

func multiEvents(counts map[core.EventType]int) []core.Event {
	var events []core.Event
	id := int64(0)
	for _, t := range core.EventTypes {
		for i := 0; i < counts[t]; i++ {
			id++
			events = append(events, core.Event{
				ID: id, EthAddress: bob, Type: t,
				Status: core.StatusVerified, CreatedAt: inWindow(time.Duration(id) * time.Minute),
			})
		}
	}
	return events
}

func TestMultiEventsRewardRounds(t *testing.T) {
	types := []core.EventType{core.ProfilePublished, core.EmailVerified, core.PhoneVerified}

	cases := []struct {
		name   string
		counts map[core.EventType]int
		want   int
	}{
		{"three singles one round", map[core.EventType]int{
			core.ProfilePublished: 1, core.EmailVerified: 1, core.PhoneVerified: 1,
		}, 1},
		{"two pairs two rounds", map[core.EventType]int{
			core.ProfilePublished: 2, core.EmailVerified: 2,
		}, 2},
		{"single type never passes", map[core.EventType]int{
			core.ProfilePublished: 5,
		}, 0},
		{"anchor type spans rounds", map[core.EventType]int{
			core.ProfilePublished: 2, core.EmailVerified: 1, core.PhoneVerified: 1,
		}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := newMultiEventsRule(testMeta(), 0, multiRuleConfig(types, 2, 10))
			if err != nil {
				t.Fatal(err)
			}
			rewards, err := r.Rewards(context.Background(), bob, multiEvents(tc.counts))
			if err != nil {
				t.Fatal(err)
			}
			if len(rewards) != tc.want {
				t.Fatalf("want %d rounds, got %d", tc.want, len(rewards))
			}
		})
	}
}

func TestMultiEventsEvaluateRequiresDistinctTypes(t *testing.T) {
	types := []core.EventType{core.ProfilePublished, core.EmailVerified}
	r, err := newMultiEventsRule(testMeta(), 0, multiRuleConfig(types, 2, 10))
	if err != nil {
		t.Fatal(err)
	}

	// Many occurrences of one type are not enough.
	ok, err := r.Evaluate(context.Background(), bob, multiEvents(map[core.EventType]int{core.ProfilePublished: 4}))
	if err != nil || ok {
		t.Fatalf("got %v %v, want false", ok, err)
	}
	ok, err = r.Evaluate(context.Background(), bob, multiEvents(map[core.EventType]int{
		core.ProfilePublished: 1, core.EmailVerified: 1,
	}))
	if err != nil || !ok {
		t.Fatalf("got %v %v, want true", ok, err)
	}
}

func TestMultiEventsRespectsLimit(t *testing.T) {
	types := []core.EventType{core.ProfilePublished, core.EmailVerified}
	r, err := newMultiEventsRule(testMeta(), 0, multiRuleConfig(types, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	rewards, err := r.Rewards(context.Background(), bob, multiEvents(map[core.EventType]int{
		core.ProfilePublished: 10, core.EmailVerified: 10,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 2 {
		t.Fatalf("want limit of 2 rounds, got %d", len(rewards))
	}
}

func referralRuleConfig(limit int) RuleConfig {
	return RuleConfig{
		ID:    "refer",
		Class: ClassReferral,
		Config: RuleParams{
			EventTypes: []core.EventType{core.ProfilePublished, core.EmailVerified},
			Reward:     &core.RewardValue{Amount: "25", Currency: "OGN"},
			Limit:      limit,
		},
	}
}

func qualifyReferee(store *fakeStore, referee string, at time.Time) {
	store.addEvent(referee, core.ProfilePublished, core.StatusVerified, at)
	store.addEvent(referee, core.EmailVerified, core.StatusVerified, at.Add(time.Minute))
}

func TestReferralRewards(t *testing.T) {
	store := &fakeStore{}
	carol := "0xcccccccccccccccccccccccccccccccccccccccc"
	dave := "0xdddddddddddddddddddddddddddddddddddddddd"
	erin := "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

	store.addInvite(bob, carol, campaignStart)
	store.addInvite(bob, dave, campaignStart)
	store.addInvite(bob, erin, campaignStart)

	// Carol completes everything during the campaign.
	qualifyReferee(store, carol, inWindow(0))
	// Dave is missing EmailVerified.
	store.addEvent(dave, core.ProfilePublished, core.StatusVerified, inWindow(0))
	// Erin completed everything before the campaign started.
	qualifyReferee(store, erin, campaignStart.Add(-10*24*time.Hour))

	r, err := newReferralRule(testMeta(), 1, referralRuleConfig(10), store, store)
	if err != nil {
		t.Fatal(err)
	}

	rewards, err := r.Rewards(context.Background(), bob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 1 {
		t.Fatalf("want exactly carol's reward, got %+v", rewards)
	}
	if rewards[0].RefereeEthAddress != carol {
		t.Fatalf("want referee %s, got %s", carol, rewards[0].RefereeEthAddress)
	}

	ok, err := r.Evaluate(context.Background(), bob, nil)
	if err != nil || !ok {
		t.Fatalf("evaluate: got %v %v, want true", ok, err)
	}
}

func TestReferralIdempotent(t *testing.T) {
	store := &fakeStore{}
	carol := "0xcccccccccccccccccccccccccccccccccccccccc"
	store.addInvite(bob, carol, campaignStart)
	qualifyReferee(store, carol, inWindow(0))

	r, err := newReferralRule(testMeta(), 1, referralRuleConfig(10), store, store)
	if err != nil {
		t.Fatal(err)
	}

	first, err := r.Rewards(context.Background(), bob, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Rewards(context.Background(), bob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rewards changed between calls: %+v vs %+v", first, second)
	}
}

func TestReferralLimitEnforced(t *testing.T) {
	store := &fakeStore{}
	referees := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	}
	for i, referee := range referees {
		store.addInvite(bob, referee, campaignStart.Add(time.Duration(i)*time.Minute))
		qualifyReferee(store, referee, inWindow(time.Duration(i)*time.Hour))
	}

	r, err := newReferralRule(testMeta(), 1, referralRuleConfig(2), store, store)
	if err != nil {
		t.Fatal(err)
	}
	rewards, err := r.Rewards(context.Background(), bob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 2 {
		t.Fatalf("want limit of 2 referral rewards, got %d", len(rewards))
	}
}

func TestReferralNoRewardConfigured(t *testing.T) {
	cfg := referralRuleConfig(0)
	cfg.Config.Reward = nil
	cfg.Config.Limit = 0

	store := &fakeStore{}
	r, err := newReferralRule(testMeta(), 1, cfg, store, store)
	if err != nil {
		t.Fatal(err)
	}
	rewards, err := r.Rewards(context.Background(), bob, nil)
	if err != nil || len(rewards) != 0 {
		t.Fatalf("got %v %v, want no rewards", rewards, err)
	}
}

func TestReferralInvitesAfterCampaignIgnored(t *testing.T) {
	store := &fakeStore{}
	carol := "0xcccccccccccccccccccccccccccccccccccccccc"
	store.addInvite(bob, carol, campaignEnd.Add(time.Hour))
	qualifyReferee(store, carol, inWindow(0))

	r, err := newReferralRule(testMeta(), 1, referralRuleConfig(10), store, store)
	if err != nil {
		t.Fatal(err)
	}
	rewards, err := r.Rewards(context.Background(), bob, nil)
	if err != nil || len(rewards) != 0 {
		t.Fatalf("invite sent after campaign end must not count, got %+v", rewards)
	}
}
