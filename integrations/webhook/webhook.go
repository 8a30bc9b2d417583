// Package webhook posts score events to configured HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"growthkit/engine"
)

// Sink posts score events to configured HTTP endpoints.
// It is synchronous for determinism; subscribe it on an async bus if the
// endpoints are slow.
type Sink struct {
	client    *http.Client
	endpoints []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints; delivery is best effort.
func (s *Sink) OnEvent(e engine.ScoreEvent) {
	if len(s.endpoints) == 0 {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
	}
}
