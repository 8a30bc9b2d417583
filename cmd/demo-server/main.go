package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	mem "growthkit/adapters/memory"
	"growthkit/api/httpapi"
	"growthkit/core"
	"growthkit/engine"
	"growthkit/growth"
	"growthkit/realtime"
	"growthkit/rules"
)

// A self-contained demo: an in-memory store seeded with a multi-level
// campaign and a handful of events, served over the HTTP API with live
// score updates on /api/ws.
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	store := seedDemoStore()
	hub := realtime.NewHub()

	scorer := growth.New(
		growth.WithCampaignStore(store),
		growth.WithEventStore(store),
		growth.WithInviteStore(store),
		growth.WithDispatchMode(engine.DispatchAsync),
		growth.WithRealtime(hub),
	)
	defer scorer.Close()

	mux := httpapi.NewMux(scorer, hub, httpapi.Options{
		PathPrefix:      "/api",
		AllowCORSOrigin: "*",
	})

	slog.Info("starting demo server on :8080",
		"try", "curl 'localhost:8080/api/campaigns/march/accounts/0x1111111111111111111111111111111111111111/score'")

	if err := http.ListenAndServe(":8080", mux); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func seedDemoStore() *mem.Store {
	start := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)

	store := mem.New()
	store.PutCampaign(
		rules.CampaignMeta{
			ID:        "march",
			NameKey:   "growth.mar2019.name",
			StartDate: start,
			EndDate:   end,
		},
		rules.Config{
			NumLevels: 3,
			Levels: []rules.LevelConfig{
				{Rules: []rules.RuleConfig{
					{ID: "ProfilePublished", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType:          core.ProfilePublished,
						Limit:              1,
						NextLevelCondition: true,
					}},
					{ID: "EmailAttestation", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType:          core.EmailVerified,
						Limit:              1,
						NextLevelCondition: true,
					}},
				}},
				{Rules: []rules.RuleConfig{
					{ID: "TwoAttestations", Class: rules.ClassMultiEvents, Config: rules.RuleParams{
						EventTypes: []core.EventType{
							core.PhoneVerified,
							core.FacebookVerified,
							core.TwitterVerified,
							core.AirbnbVerified,
						},
						NumEventsRequired:  2,
						Reward:             &core.RewardValue{Amount: "10000000000000000000", Currency: "OGN"},
						Limit:              1,
						NextLevelCondition: true,
					}},
				}},
				{Rules: []rules.RuleConfig{
					{ID: "Referral", Class: rules.ClassReferral, Config: rules.RuleParams{
						Reward: &core.RewardValue{Amount: "50000000000000000000", Currency: "OGN"},
						Limit:  25,
					}},
					{ID: "ListingCreated", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType: core.ListingCreated,
						Reward:    &core.RewardValue{Amount: "5000000000000000000", Currency: "OGN"},
						Limit:     10,
					}},
					{ID: "ListingPurchased", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType: core.ListingPurchased,
						Reward:    &core.RewardValue{Amount: "25000000000000000000", Currency: "OGN"},
						Limit:     10,
					}},
				}},
			},
		},
	)

	alice := "0x1111111111111111111111111111111111111111"
	bob := "0x2222222222222222222222222222222222222222"

	store.AddEvent(alice, core.ProfilePublished, core.StatusVerified, start.AddDate(0, 0, 1))
	store.AddEvent(alice, core.EmailVerified, core.StatusVerified, start.AddDate(0, 0, 1))
	store.AddEvent(alice, core.PhoneVerified, core.StatusVerified, start.AddDate(0, 0, 2))
	store.AddEvent(alice, core.TwitterVerified, core.StatusVerified, start.AddDate(0, 0, 2))
	store.AddEvent(alice, core.ListingCreated, core.StatusLogged, start.AddDate(0, 0, 4))

	store.AddInvite(alice, bob, start.AddDate(0, 0, 3))
	store.AddEvent(bob, core.ProfilePublished, core.StatusVerified, start.AddDate(0, 0, 3))

	return store
}
