package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"homewatch/server/internal/models"
)

// SQLiteStore is the default single-node backend, backed by GORM over
// mattn/go-sqlite3.
type SQLiteStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. In-memory paths are pinned to a single connection so the schema
// survives connection churn.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&models.Watchlist{}, &models.Property{}, &models.HistoryEvent{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{db: tx, logger: s.logger})
	})
}

func (s *SQLiteStore) CreateWatchlist(ctx context.Context, w *models.Watchlist) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetWatchlist(ctx context.Context, id int64) (*models.Watchlist, error) {
	var w models.Watchlist
	err := s.db.WithContext(ctx).First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("watchlist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *SQLiteStore) ListWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	var lists []models.Watchlist
	if err := s.db.WithContext(ctx).Order("id").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *SQLiteStore) ListActiveWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	var lists []models.Watchlist
	// NULL last_scraped_at sorts first under ASC in sqlite.
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_scraped_at ASC").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *SQLiteStore) TouchWatchlist(ctx context.Context, id int64, scrapedAt time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Watchlist{}).
		Where("id = ?", id).
		Update("last_scraped_at", scrapedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("watchlist %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) CreateProperty(ctx context.Context, p *models.Property) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create property %s: %w", p.ListingID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update property %s: %w", p.ListingID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdatePropertyScores(ctx context.Context, id int64, sc models.ScoreSet) error {
	res := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"motivation_score": sc.Total,
			"score_dom":        sc.DOM,
			"score_reductions": sc.Reduction,
			"score_off_market": sc.OffMarket,
			"score_status":     sc.Status,
			"score_market":     sc.Market,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) GetPropertyByListingID(ctx context.Context, listingID string) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("listing %s: %w", listingID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ListProperties(ctx context.Context, watchlistID int64) ([]models.Property, error) {
	var props []models.Property
	err := s.db.WithContext(ctx).
		Where("watchlist_id = ?", watchlistID).
		Order("id").
		Find(&props).Error
	if err != nil {
		return nil, err
	}
	return props, nil
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, ev *models.HistoryEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append history event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, propertyID int64) ([]models.HistoryEvent, error) {
	var events []models.HistoryEvent
	err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("event_date DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
