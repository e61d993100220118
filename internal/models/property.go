package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Property is one tracked listing, keyed by the stable listing identifier the
// source reports. Descriptive fields are overwritten wholesale from the latest
// snapshot; the price-reduction aggregates are owned by the reconciler and
// never decrease.
type Property struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	ListingID   string `gorm:"uniqueIndex;not null" json:"listing_id"`
	WatchlistID int64  `gorm:"index;not null" json:"watchlist_id"`

	Street       string   `json:"street"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	County       *string  `json:"county"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Beds         *int     `json:"beds"`
	Baths        *float64 `json:"baths"`
	Sqft         *int     `json:"sqft"`
	LotSqft      *int     `json:"lot_sqft"`
	YearBuilt    *int     `json:"year_built"`
	PropertyType *string  `json:"property_type"`

	Status           Status   `gorm:"index" json:"status"`
	CurrentListPrice *float64 `json:"current_list_price"`

	// OriginalListPrice and ListDate are captured on first observation and
	// never overwritten by later snapshots. ListDate keeps the raw source
	// string; scoring owns the parse and its fallback behavior.
	OriginalListPrice *float64 `json:"original_list_price"`
	ListDate          *string  `json:"list_date"`

	AgentName    *string   `json:"agent_name"`
	AgentEmail   *string   `json:"agent_email"`
	AgentPhone   *string   `json:"agent_phone"`
	BrokerName   *string   `json:"broker_name"`
	MLSID        *string   `gorm:"column:mls_id" json:"mls_id"`
	PrimaryPhoto *string   `json:"primary_photo"`
	Photos       PhotoList `gorm:"type:text" json:"photos"`
	Description  *string   `json:"description"`

	PriceReductionCount        int        `json:"price_reduction_count"`
	TotalPriceReductionAmount  float64    `json:"total_price_reduction_amount"`
	TotalPriceReductionPercent float64    `json:"total_price_reduction_percent"`
	LastPriceReductionDate     *time.Time `json:"last_price_reduction_date"`

	// Score fields stay null until the first scoring pass.
	MotivationScore *float64 `json:"motivation_score"`
	ScoreDOM        *float64 `gorm:"column:score_dom" json:"score_dom"`
	ScoreReductions *float64 `json:"score_reductions"`
	ScoreOffMarket  *float64 `json:"score_off_market"`
	ScoreStatus     *float64 `json:"score_status"`
	ScoreMarket     *float64 `json:"score_market"`

	RawData json.RawMessage `gorm:"type:text" json:"raw_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhotoList stores photo URLs as a JSON-encoded text column so the same model
// works on both store backends.
type PhotoList []string

// Value implements driver.Valuer.
func (p PhotoList) Value() (driver.Value, error) {
	if p == nil {
		p = PhotoList{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *PhotoList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		if v == "" {
			*p = nil
			return nil
		}
		return json.Unmarshal([]byte(v), p)
	case []byte:
		if len(v) == 0 {
			*p = nil
			return nil
		}
		return json.Unmarshal(v, p)
	default:
		return fmt.Errorf("cannot scan %T into PhotoList", src)
	}
}

// ScoreSet is the persisted motivation score breakdown. Total is the sum of
// the five components; each value is rounded to two decimal places.
type ScoreSet struct {
	Total     float64 `json:"total"`
	DOM       float64 `json:"dom_component"`
	Reduction float64 `json:"reduction_component"`
	OffMarket float64 `json:"off_market_component"`
	Status    float64 `json:"status_component"`
	Market    float64 `json:"market_component"`
}
