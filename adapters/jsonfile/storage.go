// Package jsonfile provides a campaign store backed by a single JSON
// document on disk. Suitable for demos and small deployments where
// campaign configuration is checked into the repo rather than served
// from a database.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"growthkit/rules"
)

// document is the on-disk layout: a flat list of campaigns.
type document struct {
	Campaigns []campaignEntry `json:"campaigns"`
}

type campaignEntry struct {
	rules.CampaignMeta
	Rules rules.Config `json:"rules"`
}

// Store serves campaign metadata and rule configuration from a JSON file.
type Store struct {
	path string

	mu    sync.RWMutex
	metas []rules.CampaignMeta
	byID  map[string]campaignEntry
}

// New loads the campaigns file at path. The file must exist and parse.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the campaigns file, replacing the in-memory set.
func (s *Store) Reload() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read campaigns file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("failed to parse campaigns file %s: %w", s.path, err)
	}

	metas := make([]rules.CampaignMeta, 0, len(doc.Campaigns))
	byID := make(map[string]campaignEntry, len(doc.Campaigns))
	for _, c := range doc.Campaigns {
		if c.ID == "" {
			return fmt.Errorf("campaigns file %s: campaign with empty id", s.path)
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("campaigns file %s: duplicate campaign id %q", s.path, c.ID)
		}
		metas = append(metas, c.CampaignMeta)
		byID[c.ID] = c
	}

	s.mu.Lock()
	s.metas = metas
	s.byID = byID
	s.mu.Unlock()
	return nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (rules.CampaignMeta, rules.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return rules.CampaignMeta{}, rules.Config{}, rules.ErrCampaignNotFound
	}
	return c.CampaignMeta, c.Rules, nil
}

func (s *Store) ListCampaigns(_ context.Context) ([]rules.CampaignMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.CampaignMeta, len(s.metas))
	copy(out, s.metas)
	return out, nil
}

var _ rules.CampaignStore = (*Store)(nil)
