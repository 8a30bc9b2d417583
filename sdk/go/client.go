// Package sdk provides typed access to the growthkit HTTP + WebSocket API.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the growthkit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// CurrentLevel returns the level an account has reached in a campaign.
func (c *Client) CurrentLevel(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) (int, error) {
	u, err := c.accountURL(campaignID, ethAddress, "level", onlyVerified)
	if err != nil {
		return 0, err
	}
	var body struct {
		Level int `json:"level"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return 0, err
	}
	return body.Level, nil
}

// Rewards returns the rewards an account has earned in a campaign.
func (c *Client) Rewards(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) ([]Reward, error) {
	u, err := c.accountURL(campaignID, ethAddress, "rewards", onlyVerified)
	if err != nil {
		return nil, err
	}
	var body struct {
		Rewards []Reward `json:"rewards"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Rewards, nil
}

// Score returns the full evaluation: level plus rewards.
func (c *Client) Score(ctx context.Context, campaignID, ethAddress string, onlyVerified bool) (Score, error) {
	u, err := c.accountURL(campaignID, ethAddress, "score", onlyVerified)
	if err != nil {
		return Score{}, err
	}
	var score Score
	if err := c.getJSON(ctx, u, &score); err != nil {
		return Score{}, err
	}
	return score, nil
}

// ReferralRewardValue returns the campaign's per-referral reward, or nil
// when the campaign has no referral rule.
func (c *Client) ReferralRewardValue(ctx context.Context, campaignID string) (*RewardValue, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, ErrEmptyCampaignID
	}
	u := fmt.Sprintf("%s/campaigns/%s/referral-reward", c.baseURL, url.PathEscape(campaignID))
	var body struct {
		ReferralReward *RewardValue `json:"referral_reward"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.ReferralReward, nil
}

// ListCampaigns returns all configured campaigns.
func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var body struct {
		Campaigns []Campaign `json:"campaigns"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/campaigns", &body); err != nil {
		return nil, err
	}
	return body.Campaigns, nil
}

// Health probes /healthz.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeScores connects to the WebSocket stream and emits score events.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeScores(ctx context.Context) (<-chan ScoreEvent, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan ScoreEvent, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var ev ScoreEvent
				if err := conn.ReadJSON(&ev); err != nil {
					return
				}
				select {
				case out <- ev:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) accountURL(campaignID, ethAddress, op string, onlyVerified bool) (string, error) {
	if strings.TrimSpace(campaignID) == "" {
		return "", ErrEmptyCampaignID
	}
	if strings.TrimSpace(ethAddress) == "" {
		return "", ErrEmptyAddress
	}
	u, err := url.Parse(fmt.Sprintf("%s/campaigns/%s/accounts/%s/%s",
		c.baseURL, url.PathEscape(campaignID), url.PathEscape(ethAddress), op))
	if err != nil {
		return "", err
	}
	if onlyVerified {
		q := u.Query()
		q.Set("onlyVerified", "true")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
