// Package rules implements the campaign rewards rules engine: a
// configuration-driven evaluator that determines, for a given account,
// which level it has reached within a campaign and which rewards it has
// earned, based on a history of timestamped growth events.
package rules

import (
	"time"

	"growthkit/core"
)

// MaxNumRewardsPerRule is the system-wide cap on rewards per rule.
// Configured limits above it are clamped.
const MaxNumRewardsPerRule = 1000

// RuleClass tags the rule variant in campaign configuration.
type RuleClass string

const (
	ClassSingleEvent RuleClass = "SingleEvent"
	ClassMultiEvents RuleClass = "MultiEvents"
	ClassReferral    RuleClass = "Referral"
)

// CampaignMeta carries the persisted campaign row: identity and the
// time bounds of the reward-accrual window. CapReachedDate, when set,
// marks the point at which a global reward cap was hit early and
// overrides EndDate for campaign-window queries.
type CampaignMeta struct {
	ID             string     `json:"id"`
	NameKey        string     `json:"name_key,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	CapReachedDate *time.Time `json:"cap_reached_date,omitempty"`
}

// EffectiveEndDate is the end of the campaign window for reward
// accrual: the cap-reached date when the cap was hit early, the
// configured end date otherwise.
func (m CampaignMeta) EffectiveEndDate() time.Time {
	if m.CapReachedDate != nil {
		return *m.CapReachedDate
	}
	return m.EndDate
}

// Config is the nested rule configuration persisted per campaign.
type Config struct {
	NumLevels int           `json:"numLevels"`
	Levels    []LevelConfig `json:"levels"`
}

// LevelConfig holds the ordered rules of one level.
type LevelConfig struct {
	Rules []RuleConfig `json:"rules"`
}

// RuleConfig identifies a rule and selects its variant.
type RuleConfig struct {
	ID     string     `json:"id"`
	Class  RuleClass  `json:"class"`
	Config RuleParams `json:"config"`
}

// RuleParams are the variant parameters. Reward and Limit travel
// together: a reward without a limit is a configuration error.
type RuleParams struct {
	Reward             *core.RewardValue `json:"reward,omitempty"`
	Limit              int               `json:"limit,omitempty"`
	NextLevelCondition bool              `json:"nextLevelCondition"`
	EventType          core.EventType    `json:"eventType,omitempty"`
	EventTypes         []core.EventType  `json:"eventTypes,omitempty"`
	NumEventsRequired  int               `json:"numEventsRequired,omitempty"`
}
