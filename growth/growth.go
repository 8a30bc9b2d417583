// Package growth is the top-level facade: it assembles stores, cache,
// event bus, and observers into a ready-to-use Scorer.
package growth

import (
	"context"
	"time"

	"growthkit/adapters/memory"
	"growthkit/engine"
	"growthkit/integrations/webhook"
	"growthkit/realtime"
	"growthkit/rules"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	campaigns rules.CampaignStore
	events    rules.EventStore
	invites   rules.InviteStore
	cache     engine.ScoreCache
	cacheTTL  time.Duration
	mode      engine.DispatchMode
	hub       *realtime.Hub
	webhook   *webhook.Sink
	observers []func(engine.ScoreEvent)
}

// WithCampaignStore sets the campaign configuration source.
func WithCampaignStore(s rules.CampaignStore) Option { return func(c *config) { c.campaigns = s } }

// WithEventStore sets the growth event source.
func WithEventStore(s rules.EventStore) Option { return func(c *config) { c.events = s } }

// WithInviteStore sets the referral invite source.
func WithInviteStore(s rules.InviteStore) Option { return func(c *config) { c.invites = s } }

// WithCache enables score snapshot caching with the given freshness TTL.
func WithCache(cache engine.ScoreCache, ttl time.Duration) Option {
	return func(c *config) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all score events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithWebhook wires a webhook sink to receive all score events.
func WithWebhook(s *webhook.Sink) Option { return func(c *config) { c.webhook = s } }

// WithObserver registers a callback for every score event. Analytics
// trackers and leaderboard recorders plug in here.
func WithObserver(fn func(engine.ScoreEvent)) Option {
	return func(c *config) { c.observers = append(c.observers, fn) }
}

var allEventTypes = []engine.ScoreEventType{
	engine.EventScoreComputed,
	engine.EventLevelReached,
	engine.EventRewardEarned,
}

// New builds a configured Scorer. If not provided, defaults are used:
//   - stores: a single shared in-memory store
//   - dispatch: async
func New(opts ...Option) *engine.Scorer {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.campaigns == nil || cfg.events == nil || cfg.invites == nil {
		mem := memory.New()
		if cfg.campaigns == nil {
			cfg.campaigns = mem
		}
		if cfg.events == nil {
			cfg.events = mem
		}
		if cfg.invites == nil {
			cfg.invites = mem
		}
	}

	bus := engine.NewEventBus(cfg.mode)
	var scorerOpts []engine.ScorerOption
	if cfg.cache != nil {
		scorerOpts = append(scorerOpts, engine.WithCache(cfg.cache, cfg.cacheTTL))
	}
	scorer := engine.NewScorer(cfg.campaigns, cfg.events, cfg.invites, bus, scorerOpts...)

	for _, typ := range allEventTypes {
		if cfg.hub != nil {
			hub := cfg.hub
			bus.Subscribe(typ, func(ctx context.Context, ev engine.ScoreEvent) { hub.Broadcast(ctx, ev) })
		}
		if cfg.webhook != nil {
			sink := cfg.webhook
			bus.Subscribe(typ, func(_ context.Context, ev engine.ScoreEvent) { sink.OnEvent(ev) })
		}
		for _, fn := range cfg.observers {
			fn := fn
			bus.Subscribe(typ, func(_ context.Context, ev engine.ScoreEvent) { fn(ev) })
		}
	}
	return scorer
}
