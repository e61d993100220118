package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"homewatch/server/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so every store method
// works inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the shared-database backend.
type PostgresStore struct {
	pool   *pgxpool.Pool
	q      querier
	logger *logrus.Logger
}

// NewPostgresStore connects to the database at connString, verifies the
// connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string, logger *logrus.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool, q: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS watchlists (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			price_min DOUBLE PRECISION,
			price_max DOUBLE PRECISION,
			beds_min INTEGER,
			beds_max INTEGER,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			track_off_market BOOLEAN NOT NULL DEFAULT FALSE,
			last_scraped_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id BIGSERIAL PRIMARY KEY,
			listing_id TEXT NOT NULL UNIQUE,
			watchlist_id BIGINT NOT NULL REFERENCES watchlists(id),
			street TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			zip_code TEXT NOT NULL DEFAULT '',
			county TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			beds INTEGER,
			baths DOUBLE PRECISION,
			sqft INTEGER,
			lot_sqft INTEGER,
			year_built INTEGER,
			property_type TEXT,
			status TEXT NOT NULL DEFAULT '',
			current_list_price DOUBLE PRECISION,
			original_list_price DOUBLE PRECISION,
			list_date TEXT,
			agent_name TEXT,
			agent_email TEXT,
			agent_phone TEXT,
			broker_name TEXT,
			mls_id TEXT,
			primary_photo TEXT,
			photos TEXT,
			description TEXT,
			price_reduction_count INTEGER NOT NULL DEFAULT 0,
			total_price_reduction_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_price_reduction_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_price_reduction_date TIMESTAMPTZ,
			motivation_score DOUBLE PRECISION,
			score_dom DOUBLE PRECISION,
			score_reductions DOUBLE PRECISION,
			score_off_market DOUBLE PRECISION,
			score_status DOUBLE PRECISION,
			score_market DOUBLE PRECISION,
			raw_data TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_watchlist ON properties(watchlist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status)`,
		`CREATE TABLE IF NOT EXISTS property_history (
			id BIGSERIAL PRIMARY KEY,
			property_id BIGINT NOT NULL REFERENCES properties(id),
			event_type TEXT NOT NULL,
			event_date TIMESTAMPTZ NOT NULL,
			old_status TEXT,
			new_status TEXT,
			old_price DOUBLE PRECISION,
			new_price DOUBLE PRECISION,
			price_change_amount DOUBLE PRECISION,
			price_change_percent DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_property ON property_history(property_id, event_date DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Transact(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PostgresStore{pool: s.pool, q: tx, logger: s.logger})
	})
}

func (s *PostgresStore) CreateWatchlist(ctx context.Context, w *models.Watchlist) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO watchlists (name, location, price_min, price_max, beds_min, beds_max,
			is_active, track_off_market, last_scraped_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		w.Name, w.Location, w.PriceMin, w.PriceMax, w.BedsMin, w.BedsMax,
		w.IsActive, w.TrackOffMarket, w.LastScrapedAt, w.CreatedAt,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

const watchlistColumns = `id, name, location, price_min, price_max, beds_min, beds_max,
	is_active, track_off_market, last_scraped_at, created_at`

func scanWatchlist(row pgx.Row) (*models.Watchlist, error) {
	var w models.Watchlist
	err := row.Scan(&w.ID, &w.Name, &w.Location, &w.PriceMin, &w.PriceMax, &w.BedsMin,
		&w.BedsMax, &w.IsActive, &w.TrackOffMarket, &w.LastScrapedAt, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) GetWatchlist(ctx context.Context, id int64) (*models.Watchlist, error) {
	row := s.q.QueryRow(ctx, `SELECT `+watchlistColumns+` FROM watchlists WHERE id = $1`, id)
	w, err := scanWatchlist(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("watchlist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *PostgresStore) listWatchlists(ctx context.Context, query string, args ...any) ([]models.Watchlist, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []models.Watchlist
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *w)
	}
	return lists, rows.Err()
}

func (s *PostgresStore) ListWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	return s.listWatchlists(ctx, `SELECT `+watchlistColumns+` FROM watchlists ORDER BY id`)
}

func (s *PostgresStore) ListActiveWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	return s.listWatchlists(ctx, `
		SELECT `+watchlistColumns+` FROM watchlists
		WHERE is_active = TRUE
		ORDER BY last_scraped_at ASC NULLS FIRST`)
}

func (s *PostgresStore) TouchWatchlist(ctx context.Context, id int64, scrapedAt time.Time) error {
	tag, err := s.q.Exec(ctx, `UPDATE watchlists SET last_scraped_at = $1 WHERE id = $2`, scrapedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("watchlist %d: %w", id, ErrNotFound)
	}
	return nil
}

func rawDataArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func photosArg(photos models.PhotoList) (any, error) {
	v, err := photos.Value()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *PostgresStore) CreateProperty(ctx context.Context, p *models.Property) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	photos, err := photosArg(p.Photos)
	if err != nil {
		return fmt.Errorf("failed to encode photos: %w", err)
	}

	err = s.q.QueryRow(ctx, `
		INSERT INTO properties (
			listing_id, watchlist_id, street, city, state, zip_code, county,
			latitude, longitude, beds, baths, sqft, lot_sqft, year_built, property_type,
			status, current_list_price, original_list_price, list_date,
			agent_name, agent_email, agent_phone, broker_name, mls_id,
			primary_photo, photos, description,
			price_reduction_count, total_price_reduction_amount,
			total_price_reduction_percent, last_price_reduction_date,
			raw_data, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33, $34
		) RETURNING id`,
		p.ListingID, p.WatchlistID, p.Street, p.City, p.State, p.ZipCode, p.County,
		p.Latitude, p.Longitude, p.Beds, p.Baths, p.Sqft, p.LotSqft, p.YearBuilt, p.PropertyType,
		string(p.Status), p.CurrentListPrice, p.OriginalListPrice, p.ListDate,
		p.AgentName, p.AgentEmail, p.AgentPhone, p.BrokerName, p.MLSID,
		p.PrimaryPhoto, photos, p.Description,
		p.PriceReductionCount, p.TotalPriceReductionAmount,
		p.TotalPriceReductionPercent, p.LastPriceReductionDate,
		rawDataArg(p.RawData), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create property %s: %w", p.ListingID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = time.Now().UTC()

	photos, err := photosArg(p.Photos)
	if err != nil {
		return fmt.Errorf("failed to encode photos: %w", err)
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE properties SET
			street = $1, city = $2, state = $3, zip_code = $4, county = $5,
			latitude = $6, longitude = $7, beds = $8, baths = $9, sqft = $10,
			lot_sqft = $11, year_built = $12, property_type = $13,
			status = $14, current_list_price = $15,
			agent_name = $16, agent_email = $17, agent_phone = $18, broker_name = $19,
			mls_id = $20, primary_photo = $21, photos = $22, description = $23,
			price_reduction_count = $24, total_price_reduction_amount = $25,
			total_price_reduction_percent = $26, last_price_reduction_date = $27,
			raw_data = $28, updated_at = $29
		WHERE id = $30`,
		p.Street, p.City, p.State, p.ZipCode, p.County,
		p.Latitude, p.Longitude, p.Beds, p.Baths, p.Sqft,
		p.LotSqft, p.YearBuilt, p.PropertyType,
		string(p.Status), p.CurrentListPrice,
		p.AgentName, p.AgentEmail, p.AgentPhone, p.BrokerName,
		p.MLSID, p.PrimaryPhoto, photos, p.Description,
		p.PriceReductionCount, p.TotalPriceReductionAmount,
		p.TotalPriceReductionPercent, p.LastPriceReductionDate,
		rawDataArg(p.RawData), p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property %s: %w", p.ListingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) UpdatePropertyScores(ctx context.Context, id int64, sc models.ScoreSet) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE properties SET
			motivation_score = $1, score_dom = $2, score_reductions = $3,
			score_off_market = $4, score_status = $5, score_market = $6,
			updated_at = NOW()
		WHERE id = $7`,
		sc.Total, sc.DOM, sc.Reduction, sc.OffMarket, sc.Status, sc.Market, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}

const propertyColumns = `id, listing_id, watchlist_id, street, city, state, zip_code, county,
	latitude, longitude, beds, baths, sqft, lot_sqft, year_built, property_type,
	status, current_list_price, original_list_price, list_date,
	agent_name, agent_email, agent_phone, broker_name, mls_id,
	primary_photo, photos, description,
	price_reduction_count, total_price_reduction_amount,
	total_price_reduction_percent, last_price_reduction_date,
	motivation_score, score_dom, score_reductions, score_off_market,
	score_status, score_market, raw_data, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	var status string
	var photos, rawData *string

	err := row.Scan(
		&p.ID, &p.ListingID, &p.WatchlistID, &p.Street, &p.City, &p.State, &p.ZipCode, &p.County,
		&p.Latitude, &p.Longitude, &p.Beds, &p.Baths, &p.Sqft, &p.LotSqft, &p.YearBuilt, &p.PropertyType,
		&status, &p.CurrentListPrice, &p.OriginalListPrice, &p.ListDate,
		&p.AgentName, &p.AgentEmail, &p.AgentPhone, &p.BrokerName, &p.MLSID,
		&p.PrimaryPhoto, &photos, &p.Description,
		&p.PriceReductionCount, &p.TotalPriceReductionAmount,
		&p.TotalPriceReductionPercent, &p.LastPriceReductionDate,
		&p.MotivationScore, &p.ScoreDOM, &p.ScoreReductions, &p.ScoreOffMarket,
		&p.ScoreStatus, &p.ScoreMarket, &rawData, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = models.Status(status)
	if photos != nil {
		if err := p.Photos.Scan(*photos); err != nil {
			return nil, fmt.Errorf("failed to decode photos: %w", err)
		}
	}
	if rawData != nil {
		p.RawData = json.RawMessage(*rawData)
	}
	return &p, nil
}

func (s *PostgresStore) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	row := s.q.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) GetPropertyByListingID(ctx context.Context, listingID string) (*models.Property, error) {
	row := s.q.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE listing_id = $1`, listingID)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", listingID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, watchlistID int64) ([]models.Property, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+propertyColumns+` FROM properties
		WHERE watchlist_id = $1
		ORDER BY id`, watchlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

func (s *PostgresStore) AppendHistory(ctx context.Context, ev *models.HistoryEvent) error {
	var oldStatus, newStatus *string
	if ev.OldStatus != nil {
		v := string(*ev.OldStatus)
		oldStatus = &v
	}
	if ev.NewStatus != nil {
		v := string(*ev.NewStatus)
		newStatus = &v
	}

	err := s.q.QueryRow(ctx, `
		INSERT INTO property_history (
			property_id, event_type, event_date, old_status, new_status,
			old_price, new_price, price_change_amount, price_change_percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		ev.PropertyID, string(ev.EventType), ev.EventDate, oldStatus, newStatus,
		ev.OldPrice, ev.NewPrice, ev.PriceChangeAmount, ev.PriceChangePercent,
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("failed to append history event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, propertyID int64) ([]models.HistoryEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, property_id, event_type, event_date, old_status, new_status,
			old_price, new_price, price_change_amount, price_change_percent
		FROM property_history
		WHERE property_id = $1
		ORDER BY event_date DESC, id DESC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.HistoryEvent
	for rows.Next() {
		var ev models.HistoryEvent
		var eventType string
		var oldStatus, newStatus *string

		err := rows.Scan(&ev.ID, &ev.PropertyID, &eventType, &ev.EventDate, &oldStatus, &newStatus,
			&ev.OldPrice, &ev.NewPrice, &ev.PriceChangeAmount, &ev.PriceChangePercent)
		if err != nil {
			return nil, err
		}

		ev.EventType = models.EventType(eventType)
		if oldStatus != nil {
			st := models.Status(*oldStatus)
			ev.OldStatus = &st
		}
		if newStatus != nil {
			st := models.Status(*newStatus)
			ev.NewStatus = &st
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
