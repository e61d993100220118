package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"homewatch/server/internal/models"
	"homewatch/server/internal/storage"
)

// ErrMissingListingID rejects snapshots that cannot be reconciled because the
// source did not supply a stable listing identifier.
var ErrMissingListingID = errors.New("snapshot missing listing id")

// Outcome reports what a reconciliation did with a snapshot.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
)

// Reconciler applies incoming snapshots to stored properties. It is the only
// writer of the price-reduction aggregates and the only producer of history
// events. Each call persists as one transaction; callers must not run two
// reconciliations for the same listing id concurrently.
type Reconciler struct {
	store  storage.Store
	logger *logrus.Logger
}

func New(store storage.Store, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{store: store, logger: logger}
}

// Reconcile looks up the stored property for the snapshot's listing id and
// either inserts a new record or applies the update rules: status deltas and
// price decreases become history events, aggregates grow monotonically, and
// every descriptive field is overwritten from the snapshot. Re-ingesting an
// unchanged snapshot emits no events and leaves the aggregates untouched.
func (r *Reconciler) Reconcile(ctx context.Context, watchlistID int64, snap models.Snapshot, observedAt time.Time) (Outcome, error) {
	if snap.ListingID == "" {
		return 0, ErrMissingListingID
	}

	var outcome Outcome
	err := r.store.Transact(ctx, func(tx storage.Store) error {
		existing, err := tx.GetPropertyByListingID(ctx, snap.ListingID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if existing == nil {
			outcome = OutcomeCreated
			return r.insert(ctx, tx, watchlistID, snap)
		}
		outcome = OutcomeUpdated
		return r.update(ctx, tx, existing, snap, observedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile listing %s: %w", snap.ListingID, err)
	}
	return outcome, nil
}

// insert creates a brand-new property. The first observed list price becomes
// the original list price; no history event is emitted.
func (r *Reconciler) insert(ctx context.Context, tx storage.Store, watchlistID int64, snap models.Snapshot) error {
	p := &models.Property{
		ListingID:         snap.ListingID,
		WatchlistID:       watchlistID,
		Status:            models.NormalizeStatus(snap.Status),
		CurrentListPrice:  snap.ListPrice,
		OriginalListPrice: snap.ListPrice,
		ListDate:          snap.ListDate,
	}
	applySnapshot(p, snap)

	if err := tx.CreateProperty(ctx, p); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"listing_id":   snap.ListingID,
		"watchlist_id": watchlistID,
	}).Debug("Created property")
	return nil
}

func (r *Reconciler) update(ctx context.Context, tx storage.Store, p *models.Property, snap models.Snapshot, observedAt time.Time) error {
	oldStatus := p.Status
	newStatus := models.NormalizeStatus(snap.Status)

	if oldStatus != "" && newStatus != oldStatus {
		ev := &models.HistoryEvent{
			PropertyID: p.ID,
			EventType:  models.EventStatusChange,
			EventDate:  observedAt,
			OldStatus:  &oldStatus,
			NewStatus:  &newStatus,
		}
		if err := tx.AppendHistory(ctx, ev); err != nil {
			return err
		}
		r.logger.WithFields(logrus.Fields{
			"listing_id": p.ListingID,
			"old_status": oldStatus,
			"new_status": newStatus,
		}).Info("Status changed")
	}

	oldPrice := p.CurrentListPrice
	newPrice := snap.ListPrice
	if oldPrice != nil && newPrice != nil && *newPrice < *oldPrice {
		amount := *oldPrice - *newPrice
		percent := amount / *oldPrice * 100

		ev := &models.HistoryEvent{
			PropertyID:         p.ID,
			EventType:          models.EventPriceReduction,
			EventDate:          observedAt,
			OldPrice:           oldPrice,
			NewPrice:           newPrice,
			PriceChangeAmount:  &amount,
			PriceChangePercent: &percent,
		}
		if err := tx.AppendHistory(ctx, ev); err != nil {
			return err
		}

		reducedAt := observedAt
		p.PriceReductionCount++
		p.TotalPriceReductionAmount += amount
		p.LastPriceReductionDate = &reducedAt

		r.logger.WithFields(logrus.Fields{
			"listing_id": p.ListingID,
			"old_price":  *oldPrice,
			"new_price":  *newPrice,
			"amount":     amount,
		}).Info("Price reduction recorded")
	}

	// The percent aggregate is relative to the original list price; fall back
	// to the old price, then the new one, so the denominator is never null.
	denom := p.OriginalListPrice
	if denom == nil {
		denom = oldPrice
	}
	if denom == nil {
		denom = newPrice
	}
	if denom != nil && *denom != 0 {
		p.TotalPriceReductionPercent = p.TotalPriceReductionAmount / *denom * 100
	} else {
		p.TotalPriceReductionPercent = 0
	}

	p.Status = newStatus
	p.CurrentListPrice = snap.ListPrice
	applySnapshot(p, snap)

	return tx.UpdateProperty(ctx, p)
}

// applySnapshot overwrites the descriptive fields with the snapshot's values.
// The source is authoritative for everything that is not a derived aggregate.
// Original list price and list date are deliberately not touched.
func applySnapshot(p *models.Property, snap models.Snapshot) {
	p.Street = snap.Street
	p.City = snap.City
	p.State = snap.State
	p.ZipCode = snap.ZipCode
	p.County = snap.County
	p.Latitude = snap.Latitude
	p.Longitude = snap.Longitude
	p.Beds = snap.Beds
	p.Baths = snap.Baths
	p.Sqft = snap.Sqft
	p.LotSqft = snap.LotSqft
	p.YearBuilt = snap.YearBuilt
	p.PropertyType = snap.PropertyType
	p.AgentName = snap.AgentName
	p.AgentEmail = snap.AgentEmail
	p.AgentPhone = snap.AgentPhone
	p.BrokerName = snap.BrokerName
	p.MLSID = snap.MLSID
	p.PrimaryPhoto = snap.PrimaryPhoto
	p.Photos = models.PhotoList(snap.Photos)
	p.Description = snap.Description
	p.RawData = snap.RawData
}
