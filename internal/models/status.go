package models

import "strings"

// Status is the canonical market status of a listing. Source feeds deliver
// free-form strings; NormalizeStatus is the single translation boundary from
// free text into this vocabulary.
type Status string

const (
	StatusForSale    Status = "for_sale"
	StatusOffMarket  Status = "off_market"
	StatusPending    Status = "pending"
	StatusContingent Status = "contingent"
	StatusExpired    Status = "expired"
	StatusWithdrawn  Status = "withdrawn"
	StatusSold       Status = "sold"
)

// NormalizeStatus maps a raw source status onto the canonical vocabulary:
// lower-cased, with runs of whitespace collapsed to single underscores. An
// empty or absent status normalizes to off_market. Normalization is total
// and never fails.
func NormalizeStatus(raw string) Status {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return StatusOffMarket
	}
	return Status(strings.Join(fields, "_"))
}

// IsOffMarket reports whether the status counts as off-market for scoring.
func (s Status) IsOffMarket() bool {
	return s == StatusOffMarket || s == StatusWithdrawn
}

// IsUnderContract reports whether the listing is in a pre-closing state. A
// transition from one of these into an off-market state signals a deal that
// fell through.
func (s Status) IsUnderContract() bool {
	return s == StatusPending || s == StatusContingent
}
