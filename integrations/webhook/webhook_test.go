package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"growthkit/engine"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		b, _ := io.ReadAll(r.Body)
		lastBody.Store(b)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(engine.ScoreEvent{
		Type: engine.EventRewardEarned,
		Time: time.Now().UTC(),
		Score: engine.Score{
			CampaignID: "march",
			EthAddress: "0x1111111111111111111111111111111111111111",
			Level:      1,
		},
	})

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}

	var ev engine.ScoreEvent
	if err := json.Unmarshal(lastBody.Load().([]byte), &ev); err != nil {
		t.Fatalf("decode posted event: %v", err)
	}
	if ev.Type != engine.EventRewardEarned || ev.Score.CampaignID != "march" {
		t.Fatalf("unexpected posted event: %+v", ev)
	}
}

func TestSink_NoEndpointsNoop(t *testing.T) {
	sink := New(nil)
	sink.OnEvent(engine.ScoreEvent{Type: engine.EventScoreComputed})
}
