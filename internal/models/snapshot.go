package models

import "encoding/json"

// Snapshot is one externally sourced observation of a listing's current
// attributes. ListingID and Status are mandatory; everything else is optional
// because source data is incomplete. RawData is kept opaque and only used to
// read auxiliary fields such as days_on_market.
type Snapshot struct {
	ListingID string `json:"property_id"`
	Status    string `json:"current_status"`

	Street       string   `json:"full_street_line"`
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

	ListPrice *float64 `json:"current_list_price"`
	ListDate  *string  `json:"list_date"`

	AgentName    *string  `json:"agent_name"`
	AgentEmail   *string  `json:"agent_email"`
	AgentPhone   *string  `json:"agent_phone"`
	BrokerName   *string  `json:"broker_name"`
	MLSID        *string  `json:"mls_id"`
	PrimaryPhoto *string  `json:"primary_photo"`
	Photos       []string `json:"photos"`
	Description  *string  `json:"description"`

	RawData json.RawMessage `json:"raw_data"`
}
