package leaderboard

import (
	"math/big"
	"testing"

	"growthkit/core"
	"growthkit/engine"
)

func amt(n int64) *big.Int { return big.NewInt(n) }

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update("0xaaa", amt(10))
	s.Update("0xbbb", amt(20))
	s.Update("0xccc", amt(15))
	top := s.TopN(3)
	if len(top) != 3 || top[0].EthAddress != "0xbbb" || top[1].EthAddress != "0xccc" || top[2].EthAddress != "0xaaa" {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Update("0xaaa", amt(25))
	top = s.TopN(1)
	if top[0].EthAddress != "0xaaa" {
		t.Fatalf("top should be 0xaaa, got %#v", top)
	}
}

func TestSkipListBigAmounts(t *testing.T) {
	s := NewSkipList()
	huge, _ := new(big.Int).SetString("1000000000000000000000", 10) // > int64
	s.Update("0xaaa", huge)
	s.Update("0xbbb", amt(5))
	top := s.TopN(2)
	if top[0].EthAddress != "0xaaa" || top[0].Amount.Cmp(huge) != 0 {
		t.Fatalf("unexpected top: %#v", top)
	}
}

func TestSkipListTiesOrderByAddress(t *testing.T) {
	s := NewSkipList()
	s.Update("0xbbb", amt(10))
	s.Update("0xaaa", amt(10))
	top := s.TopN(2)
	if top[0].EthAddress != "0xaaa" || top[1].EthAddress != "0xbbb" {
		t.Fatalf("expected address tiebreak, got %#v", top)
	}
}

func TestSkipListRemove(t *testing.T) {
	s := NewSkipList()
	s.Update("0xaaa", amt(10))
	s.Remove("0xaaa")
	if _, ok := s.Get("0xaaa"); ok {
		t.Fatal("expected entry removed")
	}
	if top := s.TopN(1); len(top) != 0 {
		t.Fatalf("expected empty board, got %#v", top)
	}
}

func TestRecorderReplacesTotals(t *testing.T) {
	r := NewRecorder("OGN")
	addr := "0x1111111111111111111111111111111111111111"

	score := engine.Score{
		CampaignID: "march",
		EthAddress: addr,
		Rewards: []core.Reward{
			{Value: core.RewardValue{Amount: "10", Currency: "OGN"}},
			{Value: core.RewardValue{Amount: "50", Currency: "OGN"}},
			{Value: core.RewardValue{Amount: "999", Currency: "DAI"}}, // other currency ignored
		},
	}
	r.OnEvent(engine.ScoreEvent{Type: engine.EventScoreComputed, Score: score})

	e, ok := r.Get("march", addr)
	if !ok || e.Amount.Cmp(amt(60)) != 0 {
		t.Fatalf("expected total 60, got %#v (ok=%v)", e, ok)
	}

	// recomputation carries the full reward set; totals replace, not add
	r.OnEvent(engine.ScoreEvent{Type: engine.EventScoreComputed, Score: score})
	e, _ = r.Get("march", addr)
	if e.Amount.Cmp(amt(60)) != 0 {
		t.Fatalf("expected total to stay 60, got %s", e.Amount)
	}

	// non-computed events are ignored
	r.OnEvent(engine.ScoreEvent{Type: engine.EventRewardEarned, Score: engine.Score{CampaignID: "march", EthAddress: addr}})
	e, _ = r.Get("march", addr)
	if e.Amount.Cmp(amt(60)) != 0 {
		t.Fatalf("expected total unchanged, got %s", e.Amount)
	}
}

func TestRecorderPerCampaignBoards(t *testing.T) {
	r := NewRecorder("OGN")
	a := "0x1111111111111111111111111111111111111111"
	b := "0x2222222222222222222222222222222222222222"

	r.OnEvent(engine.ScoreEvent{Type: engine.EventScoreComputed, Score: engine.Score{
		CampaignID: "march", EthAddress: a,
		Rewards: []core.Reward{{Value: core.RewardValue{Amount: "10", Currency: "OGN"}}},
	}})
	r.OnEvent(engine.ScoreEvent{Type: engine.EventScoreComputed, Score: engine.Score{
		CampaignID: "april", EthAddress: b,
		Rewards: []core.Reward{{Value: core.RewardValue{Amount: "20", Currency: "OGN"}}},
	}})

	if top := r.TopN("march", 10); len(top) != 1 || top[0].EthAddress != a {
		t.Fatalf("unexpected march board: %#v", top)
	}
	if top := r.TopN("april", 10); len(top) != 1 || top[0].EthAddress != b {
		t.Fatalf("unexpected april board: %#v", top)
	}
	if top := r.TopN("may", 10); top != nil {
		t.Fatalf("expected nil for unknown campaign, got %#v", top)
	}
}
