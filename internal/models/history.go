package models

import "time"

// EventType identifies what a history event records.
type EventType string

const (
	EventStatusChange   EventType = "status_change"
	EventPriceReduction EventType = "price_reduction"
)

// HistoryEvent is an immutable fact about a property's trajectory. Events are
// append-only: the pipeline never mutates or deletes them, and reads return
// them newest-first. EventDate is the observation time, not anything the
// source reported.
type HistoryEvent struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	PropertyID int64     `gorm:"index;not null" json:"property_id"`
	EventType  EventType `gorm:"not null" json:"event_type"`
	EventDate  time.Time `gorm:"index;not null" json:"event_date"`

	// Set for status_change events.
	OldStatus *Status `json:"old_status,omitempty"`
	NewStatus *Status `json:"new_status,omitempty"`

	// Set for price_reduction events. Amount and percent are always positive;
	// price increases are never recorded.
	OldPrice           *float64 `json:"old_price,omitempty"`
	NewPrice           *float64 `json:"new_price,omitempty"`
	PriceChangeAmount  *float64 `json:"price_change_amount,omitempty"`
	PriceChangePercent *float64 `json:"price_change_percent,omitempty"`
}
