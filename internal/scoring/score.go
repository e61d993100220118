// Package scoring computes the motivation score: a deterministic, explainable
// estimate of how likely a seller is to negotiate, built from five capped,
// independently computed components. The function is pure; persisting the
// result is the caller's job.
package scoring

import (
	"encoding/json"
	"math"
	"time"

	"homewatch/server/internal/models"
)

// DefaultAvgDaysOnMarket is the market baseline used when the caller supplies
// none and no watchlist average is available.
const DefaultAvgDaysOnMarket = 60

// Market carries the ambient market statistics the score compares against.
type Market struct {
	AvgDaysOnMarket float64
}

// Compute scores one property from its current attributes, its history and
// the market baseline. Components:
//
//	dom        (max 25) step function of days on market
//	reduction  (max 30) count- and percent-based reduction pressure
//	off_market (max 20) how recently an off-market listing was pulled
//	status     (max 15) failed pending/contingent deals and expired listings
//	market     (max 10) days on market versus the market average
//
// Each component and the total are rounded to two decimal places.
func Compute(p models.Property, history []models.HistoryEvent, market Market, now time.Time) models.ScoreSet {
	dom := DaysOnMarket(p.RawData)

	domScore := domComponent(dom)
	reductionScore := reductionComponent(p.PriceReductionCount, p.TotalPriceReductionPercent)
	offMarketScore := offMarketComponent(p, now)
	statusScore := statusComponent(p.Status, history)
	marketScore := marketComponent(dom, market.AvgDaysOnMarket)

	total := domScore + reductionScore + offMarketScore + statusScore + marketScore

	return models.ScoreSet{
		Total:     round2(total),
		DOM:       round2(domScore),
		Reduction: round2(reductionScore),
		OffMarket: round2(offMarketScore),
		Status:    round2(statusScore),
		Market:    round2(marketScore),
	}
}

func domComponent(dom float64) float64 {
	switch {
	case dom < 30:
		return 5
	case dom < 60:
		return 10
	case dom < 90:
		return 15
	case dom < 120:
		return 20
	default:
		return 25
	}
}

func reductionComponent(count int, totalPercent float64) float64 {
	countScore := math.Min(float64(count)*7, 15)
	percentScore := math.Min(totalPercent*0.75, 15)
	return countScore + percentScore
}

// offMarketComponent rates how long an off-market listing has been pulled.
// off_market_days only moves off zero for off_market/withdrawn listings with
// a list date; a missing date leaves it at 0 and an unparseable one counts as
// 30. The tier table is applied unconditionally, so an on-market listing's
// zero still lands in the top tier. That matches the production formula and
// is kept as observed.
func offMarketComponent(p models.Property, now time.Time) float64 {
	offMarketDays := 0.0
	if p.Status.IsOffMarket() && p.ListDate != nil && *p.ListDate != "" {
		if t, err := ParseListDate(*p.ListDate); err == nil {
			offMarketDays = math.Floor(now.Sub(t).Hours() / 24)
		} else {
			offMarketDays = 30
		}
	}

	switch {
	case offMarketDays < 7:
		return 20
	case offMarketDays < 30:
		return 15
	case offMarketDays < 90:
		return 10
	default:
		return 5
	}
}

// statusComponent awards 10 points if any recorded transition shows a
// pending/contingent deal falling through to off-market (checked once, not
// per occurrence) and 5 if the listing is currently expired, capped at 15.
func statusComponent(current models.Status, history []models.HistoryEvent) float64 {
	score := 0.0
	for _, h := range history {
		if h.EventType != models.EventStatusChange || h.OldStatus == nil || h.NewStatus == nil {
			continue
		}
		if h.OldStatus.IsUnderContract() && h.NewStatus.IsOffMarket() {
			score += 10
			break
		}
	}
	if current == models.StatusExpired {
		score += 5
	}
	return math.Min(score, 15)
}

func marketComponent(dom, avgDOM float64) float64 {
	if avgDOM <= 0 {
		avgDOM = DefaultAvgDaysOnMarket
	}
	switch {
	case dom > avgDOM*1.5:
		return 10
	case dom > avgDOM*1.2:
		return 7
	case dom > avgDOM:
		return 5
	default:
		return 3
	}
}

// DaysOnMarket reads the days_on_market field from the opaque raw payload.
// A missing or malformed payload scores as zero days rather than failing the
// whole computation.
func DaysOnMarket(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var payload struct {
		DaysOnMarket *float64 `json:"days_on_market"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.DaysOnMarket == nil {
		return 0
	}
	return *payload.DaysOnMarket
}

// ParseListDate accepts the date formats the source feed is known to emit.
func ParseListDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
