package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/big"
	"math/rand/v2"
	"sync"
)

// A skip list keyed by (amount desc, address asc) for O(log n) updates.
// Token amounts exceed int64 range, so scores are big.Ints.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    Entry
	next [maxLevel]*node
}

type SkipList struct {
	mu        sync.RWMutex
	head      *node
	lvl       int
	byAddress map[string]*node
	rng       *rand.Rand
}

func NewSkipList() *SkipList {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head:      &node{},
		lvl:       1,
		byAddress: map[string]*node{},
		rng:       rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b Entry) bool {
	switch a.Amount.Cmp(b.Amount) {
	case 0:
		return a.EthAddress < b.EthAddress
	case 1:
		return true // higher amount first
	default:
		return false
	}
}

// Update inserts the account or moves it to its new total.
func (s *SkipList) Update(ethAddress string, amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byAddress[ethAddress]; ok {
		s.removeLocked(ethAddress, old.e)
	}
	e := Entry{EthAddress: ethAddress, Amount: new(big.Int).Set(amount)}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byAddress[ethAddress] = n
}

func (s *SkipList) removeLocked(ethAddress string, e Entry) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.e.EthAddress != ethAddress {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byAddress, ethAddress)
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

func (s *SkipList) Remove(ethAddress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.byAddress[ethAddress]; ok {
		s.removeLocked(ethAddress, n.e)
	}
}

func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, n)
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, Entry{EthAddress: cur.e.EthAddress, Amount: new(big.Int).Set(cur.e.Amount)})
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Get(ethAddress string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byAddress[ethAddress]; ok {
		return Entry{EthAddress: n.e.EthAddress, Amount: new(big.Int).Set(n.e.Amount)}, true
	}
	return Entry{}, false
}

var _ Board = (*SkipList)(nil)
