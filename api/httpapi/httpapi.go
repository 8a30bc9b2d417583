// Package httpapi exposes campaign scoring over a small REST API plus a
// WebSocket stream of score events.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	wsadapter "growthkit/adapters/websocket"
	"growthkit/core"
	"growthkit/engine"
	"growthkit/realtime"
	"growthkit/rules"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewMux builds an http.Handler exposing the scoring REST API and WebSocket stream.
// Routes:
//   - GET {prefix}/campaigns
//   - GET {prefix}/campaigns/{id}/referral-reward
//   - GET {prefix}/campaigns/{id}/accounts/{addr}/level?onlyVerified=true
//   - GET {prefix}/campaigns/{id}/accounts/{addr}/rewards?onlyVerified=true
//   - GET {prefix}/campaigns/{id}/accounts/{addr}/score?onlyVerified=true
//   - GET {prefix}/healthz
//   - WS  {prefix}/ws
func NewMux(scorer *engine.Scorer, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, scorer)
	})

	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/campaigns"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		campaigns, err := scorer.ListCampaigns(r.Context())
		if err != nil {
			writeScoringError(w, err)
			return
		}
		writeJSON(w, map[string]any{"campaigns": campaigns})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/campaigns/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
		parts := split(path, '/')
		// parts[0] is always "campaigns" here
		if len(parts) < 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		campaignID := parts[1]

		if len(parts) == 3 && parts[2] == "referral-reward" {
			value, err := scorer.ReferralRewardValue(r.Context(), campaignID)
			if err != nil {
				writeScoringError(w, err)
				return
			}
			writeJSON(w, map[string]any{"campaign_id": campaignID, "referral_reward": value})
			return
		}

		if len(parts) == 5 && parts[2] == "accounts" {
			addr := parts[3]
			onlyVerified := r.URL.Query().Get("onlyVerified") == "true"
			switch parts[4] {
			case "level":
				level, err := scorer.CurrentLevel(r.Context(), campaignID, addr, onlyVerified)
				if err != nil {
					writeScoringError(w, err)
					return
				}
				writeJSON(w, map[string]any{"campaign_id": campaignID, "level": level})
				return
			case "rewards":
				rewards, err := scorer.Rewards(r.Context(), campaignID, addr, onlyVerified)
				if err != nil {
					writeScoringError(w, err)
					return
				}
				writeJSON(w, map[string]any{"campaign_id": campaignID, "rewards": rewards})
				return
			case "score":
				score, err := scorer.Score(r.Context(), campaignID, addr, onlyVerified)
				if err != nil {
					writeScoringError(w, err)
					return
				}
				writeJSON(w, score)
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

// Helpers

// healthCheck verifies campaign configuration is reachable.
func healthCheck(w http.ResponseWriter, r *http.Request, scorer *engine.Scorer) {
	_, err := scorer.ListCampaigns(r.Context())

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"campaigns": "ok",
		},
	}

	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["campaigns"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// writeScoringError maps engine errors to HTTP statuses.
func writeScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, "campaign_not_found", err.Error(), nil)
	case rules.IsConfigError(err):
		writeError(w, http.StatusInternalServerError, "invalid_campaign_config", err.Error(), nil)
	case errors.Is(err, core.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiters := newClientLimiters(rate.Limit(float64(rpm)/60.0), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiters.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterIdleTTL bounds the per-client limiter map: entries not seen
// for this long are swept on the next lookup.
const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientLimiters struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	byClient  map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		limit:     limit,
		burst:     burst,
		byClient:  make(map[string]*clientLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (c *clientLimiters) allow(key string) bool {
	now := c.now()
	c.mu.Lock()
	if now.Sub(c.lastSweep) >= limiterSweepInterval {
		for k, entry := range c.byClient {
			if now.Sub(entry.lastSeen) >= limiterIdleTTL {
				delete(c.byClient, k)
			}
		}
		c.lastSweep = now
	}
	entry, ok := c.byClient[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.byClient[key] = entry
	}
	entry.lastSeen = now
	c.mu.Unlock()
	return entry.limiter.Allow()
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
