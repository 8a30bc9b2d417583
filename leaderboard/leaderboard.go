// Package leaderboard ranks accounts by total reward value earned in a
// campaign.
package leaderboard

import "math/big"

// Entry represents one ranked account. Amount is the total reward value
// in token base units.
type Entry struct {
	EthAddress string
	Amount     *big.Int
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(ethAddress string, amount *big.Int)
	Remove(ethAddress string)
	TopN(n int) []Entry
	Get(ethAddress string) (Entry, bool)
}
