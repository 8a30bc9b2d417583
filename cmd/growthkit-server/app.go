package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	jsonfileAdapter "growthkit/adapters/jsonfile"
	mem "growthkit/adapters/memory"
	redisAdapter "growthkit/adapters/redis"
	sqlxAdapter "growthkit/adapters/sqlx"
	"growthkit/api/httpapi"
	"growthkit/config"
	"growthkit/engine"
	"growthkit/growth"
	"growthkit/realtime"
	"growthkit/rules"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Scorer  *engine.Scorer
	Handler http.Handler
	Server  *http.Server
}

// Stores bundles the three store interfaces the scorer depends on. The
// selected adapter may serve all three, or a mix of adapters may be used.
type Stores struct {
	Campaigns rules.CampaignStore
	Events    rules.EventStore
	Invites   rules.InviteStore
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStores(ctx context.Context, cfg *config.Config) (Stores, error) {
	return setupStorage(ctx, cfg)
}

func provideCache(cfg *config.Config) (engine.ScoreCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	return redisAdapter.New(cfg.Cache.Redis)
}

func provideScorer(hub *realtime.Hub, stores Stores, cache engine.ScoreCache, cfg *config.Config) *engine.Scorer {
	opts := []growth.Option{
		growth.WithCampaignStore(stores.Campaigns),
		growth.WithEventStore(stores.Events),
		growth.WithInviteStore(stores.Invites),
		growth.WithRealtime(hub),
		growth.WithDispatchMode(engine.DispatchAsync),
	}
	if cache != nil {
		opts = append(opts, growth.WithCache(cache, cfg.Cache.TTL))
	}
	return growth.New(opts...)
}

func provideHandler(scorer *engine.Scorer, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(scorer, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapters based on
// configuration. The "file" adapter serves campaign configuration from
// a JSON file; events and invites then live in memory.
func setupStorage(_ context.Context, cfg *config.Config) (Stores, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		store := mem.New()
		return Stores{Campaigns: store, Events: store, Invites: store}, nil
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return Stores{}, err
		}
		return Stores{Campaigns: store, Events: store, Invites: store}, nil
	case "file":
		campaigns, err := jsonfileAdapter.New(cfg.Storage.File.Path)
		if err != nil {
			return Stores{}, err
		}
		store := mem.New()
		return Stores{Campaigns: campaigns, Events: store, Invites: store}, nil
	default:
		return Stores{}, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
