package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	mem "growthkit/adapters/memory"
	"growthkit/core"
	"growthkit/engine"
	"growthkit/rules"
)

const alice = "0x1111111111111111111111111111111111111111"

func newTestScorer() *engine.Scorer {
	start := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)

	store := mem.New()
	store.PutCampaign(
		rules.CampaignMeta{ID: "march", StartDate: start, EndDate: end},
		rules.Config{
			NumLevels: 1,
			Levels: []rules.LevelConfig{
				{Rules: []rules.RuleConfig{
					{ID: "Email", Class: rules.ClassSingleEvent, Config: rules.RuleParams{
						EventType: core.EmailVerified,
						Reward:    &core.RewardValue{Amount: "10", Currency: "OGN"},
						Limit:     1,
					}},
					{ID: "Referral", Class: rules.ClassReferral, Config: rules.RuleParams{
						Reward: &core.RewardValue{Amount: "50", Currency: "OGN"},
						Limit:  25,
					}},
				}},
			},
		},
	)
	store.AddEvent(alice, core.EmailVerified, core.StatusVerified, start.AddDate(0, 0, 5))

	bus := engine.NewEventBus(engine.DispatchSync)
	return engine.NewScorer(store, store, store, bus)
}

func TestGetScoreSuccess(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/march/accounts/"+alice+"/score", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var score engine.Score
	if err := json.Unmarshal(rec.Body.Bytes(), &score); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.Level != 0 || len(score.Rewards) != 1 {
		t.Fatalf("unexpected score: %+v", score)
	}
}

func TestGetLevelAndRewards(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/march/accounts/"+alice+"/level", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var levelResp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &levelResp)
	if levelResp["level"] != float64(0) {
		t.Fatalf("expected level 0, got %v", levelResp["level"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns/march/accounts/"+alice+"/rewards", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rewardsResp struct {
		Rewards []core.Reward `json:"rewards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rewardsResp); err != nil {
		t.Fatalf("decode rewards: %v", err)
	}
	if len(rewardsResp.Rewards) != 1 || rewardsResp.Rewards[0].Value.Amount != "10" {
		t.Fatalf("unexpected rewards: %+v", rewardsResp.Rewards)
	}
}

func TestReferralReward(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/march/referral-reward", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ReferralReward *core.RewardValue `json:"referral_reward"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ReferralReward == nil || resp.ReferralReward.Amount != "50" {
		t.Fatalf("unexpected referral reward: %+v", resp.ReferralReward)
	}
}

func TestListCampaigns(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Campaigns []rules.CampaignMeta `json:"campaigns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Campaigns) != 1 || resp.Campaigns[0].ID != "march" {
		t.Fatalf("unexpected campaigns: %+v", resp.Campaigns)
	}
}

func TestInvalidAddress(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/march/accounts/not-an-address/level", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownCampaign(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/missing/accounts/"+alice+"/level", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{
		PathPrefix:      "/api",
		APIKeys:         []string{"secret"},
		AllowCORSOrigin: "*",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
}

func TestRateLimit(t *testing.T) {
	handler := NewMux(newTestScorer(), nil, Options{
		PathPrefix:       "/api",
		APIKeys:          []string{"k"},
		RateLimitEnabled: true,
		RateLimitRPM:     1,
		RateLimitBurst:   1,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req1.Header.Set("X-API-Key", "k")
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 first request, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req2.Header.Set("X-API-Key", "k")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}

func TestClientLimitersSweepIdleEntries(t *testing.T) {
	now := time.Now()
	limiters := newClientLimiters(rate.Limit(1), 1)
	limiters.now = func() time.Time { return now }
	limiters.lastSweep = now

	for i := 0; i < 100; i++ {
		limiters.allow(fmt.Sprintf("client-%d", i))
	}
	if got := len(limiters.byClient); got != 100 {
		t.Fatalf("want 100 tracked clients, got %d", got)
	}

	// One client stays active past the idle TTL; the rest go quiet.
	now = now.Add(limiterIdleTTL / 2)
	limiters.allow("client-0")
	now = now.Add(limiterIdleTTL/2 + time.Second)
	limiters.allow("client-fresh")

	if got := len(limiters.byClient); got != 2 {
		t.Fatalf("want 2 tracked clients after sweep, got %d", got)
	}
	if _, ok := limiters.byClient["client-0"]; !ok {
		t.Fatal("active client was swept")
	}
	if _, ok := limiters.byClient["client-fresh"]; !ok {
		t.Fatal("fresh client missing")
	}
}
