package core

import "time"

// EventType enumerates the growth event types known to the system.
type EventType string

const (
	ProfilePublished EventType = "ProfilePublished"
	EmailVerified    EventType = "EmailVerified"
	PhoneVerified    EventType = "PhoneVerified"
	FacebookVerified EventType = "FacebookVerified"
	TwitterVerified  EventType = "TwitterVerified"
	AirbnbVerified   EventType = "AirbnbVerified"
	ListingCreated   EventType = "ListingCreated"
	ListingPurchased EventType = "ListingPurchased"
	ListingSold      EventType = "ListingSold"
	RefereeSignedUp  EventType = "RefereeSignedUp"
)

// EventTypes lists every known event type. Rule configurations are
// validated against this set at construction time.
var EventTypes = []EventType{
	ProfilePublished,
	EmailVerified,
	PhoneVerified,
	FacebookVerified,
	TwitterVerified,
	AirbnbVerified,
	ListingCreated,
	ListingPurchased,
	ListingSold,
	RefereeSignedUp,
}

// ValidEventType reports whether t belongs to the known enumeration.
func ValidEventType(t EventType) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EventStatus tracks the verification state of an event.
type EventStatus string

const (
	StatusLogged   EventStatus = "Logged"
	StatusVerified EventStatus = "Verified"
	StatusFraud    EventStatus = "Fraud"
)

// EligibleStatuses are the statuses that count toward rule evaluation.
// Fraud events are never counted.
var EligibleStatuses = []EventStatus{StatusLogged, StatusVerified}

// Eligible reports whether the status counts toward rule evaluation.
func (s EventStatus) Eligible() bool {
	return s == StatusLogged || s == StatusVerified
}

// Event is a timestamped, typed, status-tagged fact about an account.
type Event struct {
	ID         int64       `json:"id"`
	EthAddress string      `json:"eth_address"`
	Type       EventType   `json:"type"`
	Status     EventStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Invite records a referral invitation sent by a referrer to a referee.
type Invite struct {
	ReferrerEthAddress string    `json:"referrer_eth_address"`
	RefereeEthAddress  string    `json:"referee_eth_address"`
	CreatedAt          time.Time `json:"created_at"`
}
