package engine

import "time"

// ScoreEventType enumerates scoring notifications.
type ScoreEventType string

const (
	// EventScoreComputed fires on every completed evaluation.
	EventScoreComputed ScoreEventType = "score_computed"
	// EventLevelReached fires when an account's level rose compared to
	// its previous snapshot.
	EventLevelReached ScoreEventType = "level_reached"
	// EventRewardEarned fires when an evaluation produced more rewards
	// than the previous snapshot.
	EventRewardEarned ScoreEventType = "reward_earned"
)

// ScoreEvent is published on the bus whenever a score is computed.
type ScoreEvent struct {
	Type  ScoreEventType `json:"type"`
	Time  time.Time      `json:"time"`
	Score Score          `json:"score"`
}

func newScoreEvent(typ ScoreEventType, score Score) ScoreEvent {
	return ScoreEvent{Type: typ, Time: time.Now().UTC(), Score: score}
}
