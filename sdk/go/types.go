package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RewardValue mirrors the public JSON surface of a reward's value.
type RewardValue struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Reward mirrors the public JSON surface of an earned reward.
type Reward struct {
	CampaignID        string      `json:"campaign_id"`
	LevelID           int         `json:"level_id"`
	RuleID            string      `json:"rule_id"`
	Value             RewardValue `json:"value"`
	RefereeEthAddress string      `json:"referee_eth_address,omitempty"`
}

// Score is a full evaluation result for one account in one campaign.
type Score struct {
	CampaignID   string    `json:"campaign_id"`
	EthAddress   string    `json:"eth_address"`
	OnlyVerified bool      `json:"only_verified"`
	Level        int       `json:"level"`
	Rewards      []Reward  `json:"rewards"`
	ComputedAt   time.Time `json:"computed_at"`
}

// ScoreEvent is one message from the WebSocket stream.
type ScoreEvent struct {
	Type  string    `json:"type"`
	Time  time.Time `json:"time"`
	Score Score     `json:"score"`
}

// Campaign mirrors the campaign listing entry.
type Campaign struct {
	ID             string     `json:"id"`
	NameKey        string     `json:"name_key,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	CapReachedDate *time.Time `json:"cap_reached_date,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyAddress is returned when the account address is empty.
var ErrEmptyAddress = errors.New("eth address is required")

// ErrEmptyCampaignID is returned when the campaign id is empty.
var ErrEmptyCampaignID = errors.New("campaign id is required")
