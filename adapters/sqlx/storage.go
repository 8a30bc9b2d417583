// Package sqlx provides a PostgreSQL-backed implementation of the
// growth stores using jmoiron/sqlx.
package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"growthkit/core"
	"growthkit/rules"
)

// Driver selects the SQL driver.
type Driver string

const DriverPostgres Driver = "postgres"

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "postgres://localhost:5432/growthkit?sslmode=disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the growth stores on PostgreSQL.
// Tables: growth_event, growth_invite, growth_campaign.
type Store struct {
	db *sqlx.DB
}

// New opens a connection pool and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver: %s", cfg.Driver)
	}
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Store{db: db}, nil
}

// NewWithDB creates a Store using an existing DB handle (useful for testing).
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type eventRow struct {
	ID         int64     `db:"id"`
	EthAddress string    `db:"eth_address"`
	Type       string    `db:"type"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r eventRow) toEvent() core.Event {
	return core.Event{
		ID:         r.ID,
		EthAddress: r.EthAddress,
		Type:       core.EventType(r.Type),
		Status:     core.EventStatus(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func (s *Store) FindEvents(ctx context.Context, ethAddress string, statuses []core.EventStatus, window *rules.TimeWindow) ([]core.Event, error) {
	query := `SELECT id, eth_address, type, status, created_at
		FROM growth_event
		WHERE eth_address = ? AND status IN (?)`
	args := []any{ethAddress, statuses}

	if window != nil {
		if !window.Start.IsZero() {
			query += ` AND created_at >= ?`
			args = append(args, window.Start)
		}
		query += ` AND created_at < ?`
		args = append(args, window.End)
	}
	query += ` ORDER BY id ASC`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand event query: %w", err)
	}
	query = s.db.Rebind(query)

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, inArgs...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	events := make([]core.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

type inviteRow struct {
	ReferrerEthAddress string    `db:"referrer_eth_address"`
	RefereeEthAddress  string    `db:"referee_eth_address"`
	CreatedAt          time.Time `db:"created_at"`
}

func (s *Store) FindInvites(ctx context.Context, referrerEthAddress string, createdBefore time.Time) ([]core.Invite, error) {
	query := s.db.Rebind(`SELECT referrer_eth_address, referee_eth_address, created_at
		FROM growth_invite
		WHERE referrer_eth_address = ? AND created_at <= ?
		ORDER BY created_at ASC`)

	var rows []inviteRow
	if err := s.db.SelectContext(ctx, &rows, query, referrerEthAddress, createdBefore); err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	invites := make([]core.Invite, 0, len(rows))
	for _, r := range rows {
		invites = append(invites, core.Invite(r))
	}
	return invites, nil
}

type campaignRow struct {
	ID             string       `db:"id"`
	NameKey        string       `db:"name_key"`
	StartDate      time.Time    `db:"start_date"`
	EndDate        time.Time    `db:"end_date"`
	CapReachedDate sql.NullTime `db:"cap_reached_date"`
	RulesConfig    []byte       `db:"rules_config"`
}

func (s *Store) GetCampaign(ctx context.Context, id string) (rules.CampaignMeta, rules.Config, error) {
	query := s.db.Rebind(`SELECT id, name_key, start_date, end_date, cap_reached_date, rules_config
		FROM growth_campaign WHERE id = ?`)

	var row campaignRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rules.CampaignMeta{}, rules.Config{}, rules.ErrCampaignNotFound
		}
		return rules.CampaignMeta{}, rules.Config{}, fmt.Errorf("failed to query campaign: %w", err)
	}

	meta := rules.CampaignMeta{
		ID:        row.ID,
		NameKey:   row.NameKey,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
	}
	if row.CapReachedDate.Valid {
		t := row.CapReachedDate.Time
		meta.CapReachedDate = &t
	}

	var cfg rules.Config
	if err := json.Unmarshal(row.RulesConfig, &cfg); err != nil {
		return rules.CampaignMeta{}, rules.Config{}, fmt.Errorf("failed to decode campaign %s rules config: %w", id, err)
	}
	return meta, cfg, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]rules.CampaignMeta, error) {
	query := `SELECT id, name_key, start_date, end_date, cap_reached_date, '{}'::jsonb AS rules_config
		FROM growth_campaign ORDER BY start_date ASC`

	var rows []campaignRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	metas := make([]rules.CampaignMeta, 0, len(rows))
	for _, row := range rows {
		meta := rules.CampaignMeta{
			ID:        row.ID,
			NameKey:   row.NameKey,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
		}
		if row.CapReachedDate.Valid {
			t := row.CapReachedDate.Time
			meta.CapReachedDate = &t
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

var _ rules.EventStore = (*Store)(nil)
var _ rules.InviteStore = (*Store)(nil)
var _ rules.CampaignStore = (*Store)(nil)
