package core

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RewardValue is the monetary value attached to a rule's reward.
// Amount is a base-10 integer string in the currency's smallest unit.
type RewardValue struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// AmountUnits parses the amount into integer token units.
func (v RewardValue) AmountUnits() (*big.Int, error) {
	n, ok := new(big.Int).SetString(v.Amount, 10)
	if !ok {
		return nil, errors.New("invalid reward amount: " + v.Amount)
	}
	return n, nil
}

// Reward identifies a reward earned by an account for a campaign rule.
// Rewards are value objects: always freshly computed, never persisted here.
// For referral rewards, RefereeEthAddress names the qualifying referee.
type Reward struct {
	CampaignID        string      `json:"campaign_id"`
	LevelID           int         `json:"level_id"`
	RuleID            string      `json:"rule_id"`
	Value             RewardValue `json:"value"`
	RefereeEthAddress string      `json:"referee_eth_address,omitempty"`
}

// NewReward builds a plain rule reward.
func NewReward(campaignID string, levelID int, ruleID string, value RewardValue) Reward {
	return Reward{CampaignID: campaignID, LevelID: levelID, RuleID: ruleID, Value: value}
}

// NewReferralReward builds a reward credited to a referrer for a referee.
func NewReferralReward(campaignID string, levelID int, ruleID string, value RewardValue, referee string) Reward {
	r := NewReward(campaignID, levelID, ruleID, value)
	r.RefereeEthAddress = referee
	return r
}

// ErrInvalidAddress is returned for malformed Ethereum account addresses.
var ErrInvalidAddress = errors.New("invalid eth address")

// NormalizeAddress validates and lowercases an Ethereum account address.
// All stores and rule evaluations operate on lowercased addresses.
func NormalizeAddress(addr string) (string, error) {
	s := strings.TrimSpace(addr)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	return strings.ToLower(s), nil
}
