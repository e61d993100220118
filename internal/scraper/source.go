// Package scraper is the boundary to the external snapshot source. The
// actual scraping runs elsewhere; the pipeline only consumes batches of
// listing snapshots it returns.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"homewatch/server/internal/models"
)

// Criteria mirrors the search parameters a watchlist tracks.
type Criteria struct {
	Location string   `json:"location"`
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	BedsMin  *int     `json:"beds_min,omitempty"`
	BedsMax  *int     `json:"beds_max,omitempty"`
}

// CriteriaFor extracts the scrape criteria from a watchlist.
func CriteriaFor(w models.Watchlist) Criteria {
	return Criteria{
		Location: w.Location,
		PriceMin: w.PriceMin,
		PriceMax: w.PriceMax,
		BedsMin:  w.BedsMin,
		BedsMax:  w.BedsMax,
	}
}

// Source supplies listing snapshots for a set of search criteria.
type Source interface {
	Fetch(ctx context.Context, scanType string, criteria Criteria) ([]models.Snapshot, error)
}

// HTTPSource fetches snapshots from the scraper service over HTTP.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewHTTPSource(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type scrapeRequest struct {
	Type     string   `json:"type"`
	Criteria Criteria `json:"criteria"`
}

type scrapeResponse struct {
	Success    bool              `json:"success"`
	Properties []models.Snapshot `json:"properties"`
	Error      string            `json:"error"`
}

// Fetch POSTs the criteria to the scraper service and returns the snapshot
// batch it produced.
func (s *HTTPSource) Fetch(ctx context.Context, scanType string, criteria Criteria) ([]models.Snapshot, error) {
	body, err := json.Marshal(scrapeRequest{Type: scanType, Criteria: criteria})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper returned status %d", resp.StatusCode)
	}

	var result scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode scrape response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("scraper reported failure: %s", result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"scan_type": scanType,
		"location":  criteria.Location,
		"snapshots": len(result.Properties),
	}).Debug("Fetched snapshots")

	return result.Properties, nil
}
