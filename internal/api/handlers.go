package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homewatch/server/internal/batch"
	"homewatch/server/internal/geometry"
	"homewatch/server/internal/models"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/scoring"
	"homewatch/server/internal/storage"
)

type Handler struct {
	store       storage.Store
	coordinator *batch.Coordinator
	scanQueue   *queue.ScanQueue
	logger      *logrus.Logger
}

func NewHandler(store storage.Store, coordinator *batch.Coordinator, scanQueue *queue.ScanQueue, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		store:       store,
		coordinator: coordinator,
		scanQueue:   scanQueue,
		logger:      logger,
	}
}

type storeRequest struct {
	WatchlistID int64             `json:"watchlist_id" binding:"required"`
	Properties  []models.Snapshot `json:"properties" binding:"required"`
}

// StoreProperties ingests a batch of snapshots into one watchlist.
func (h *Handler) StoreProperties(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid store request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "watchlist_id and properties array required"})
		return
	}

	summary, err := h.coordinator.Ingest(c.Request.Context(), req.WatchlistID, req.Properties)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to ingest snapshots")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store properties"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type scoreRequest struct {
	WatchlistID     *int64   `json:"watchlist_id"`
	PropertyID      *int64   `json:"property_id"`
	AvgDaysOnMarket *float64 `json:"avg_days_on_market"`
}

// ScoreProperties recomputes motivation scores for one watchlist or one
// property.
func (h *Handler) ScoreProperties(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var market *scoring.Market
	if req.AvgDaysOnMarket != nil {
		market = &scoring.Market{AvgDaysOnMarket: *req.AvgDaysOnMarket}
	}

	switch {
	case req.WatchlistID != nil:
		summary, err := h.coordinator.ScoreWatchlist(c.Request.Context(), *req.WatchlistID, market)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Failed to score watchlist")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score properties"})
			return
		}
		c.JSON(http.StatusOK, summary)

	case req.PropertyID != nil:
		err := h.coordinator.ScoreProperty(c.Request.Context(), *req.PropertyID, market)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Failed to score property")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score property"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scored_count": 1, "total_properties": 1})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "watchlist_id or property_id required"})
	}
}

// GetProperties lists the properties of one watchlist.
func (h *Handler) GetProperties(c *gin.Context) {
	watchlistID, err := strconv.ParseInt(c.Query("watchlist_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "watchlist_id query parameter required"})
		return
	}

	properties, err := h.store.ListProperties(c.Request.Context(), watchlistID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

// GetProperty returns one property by internal id.
func (h *Handler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return
	}

	property, err := h.store.GetProperty(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// GetPropertyHistory returns a property's history events newest-first.
func (h *Handler) GetPropertyHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return
	}

	if _, err := h.store.GetProperty(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property history"})
		return
	}

	history, err := h.store.ListHistory(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// ListWatchlists returns all watchlists.
func (h *Handler) ListWatchlists(c *gin.Context) {
	watchlists, err := h.store.ListWatchlists(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list watchlists")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get watchlists"})
		return
	}
	c.JSON(http.StatusOK, watchlists)
}

type createWatchlistRequest struct {
	Name           string   `json:"name" binding:"required"`
	Location       string   `json:"location"`
	PriceMin       *float64 `json:"price_min"`
	PriceMax       *float64 `json:"price_max"`
	BedsMin        *int     `json:"beds_min"`
	BedsMax        *int     `json:"beds_max"`
	TrackOffMarket bool     `json:"track_off_market"`
}

// CreateWatchlist registers a new tracked collection.
func (h *Handler) CreateWatchlist(c *gin.Context) {
	var req createWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	w := &models.Watchlist{
		Name:           req.Name,
		Location:       req.Location,
		PriceMin:       req.PriceMin,
		PriceMax:       req.PriceMax,
		BedsMin:        req.BedsMin,
		BedsMax:        req.BedsMax,
		IsActive:       true,
		TrackOffMarket: req.TrackOffMarket,
	}
	if err := h.store.CreateWatchlist(c.Request.Context(), w); err != nil {
		h.logger.WithError(err).Error("Failed to create watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create watchlist"})
		return
	}

	c.JSON(http.StatusCreated, w)
}

type watchlistStats struct {
	TotalProperties  int         `json:"total_properties"`
	AverageListPrice *float64    `json:"average_list_price"`
	AvgDaysOnMarket  *float64    `json:"avg_days_on_market"`
	Area             interface{} `json:"area,omitempty"`
}

// GetWatchlistStats summarizes one watchlist: counts, price and
// days-on-market averages, and the geographic area its properties cover.
func (h *Handler) GetWatchlistStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid watchlist id"})
		return
	}

	if _, err := h.store.GetWatchlist(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get watchlist stats"})
		return
	}

	properties, err := h.store.ListProperties(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get watchlist stats"})
		return
	}

	stats := watchlistStats{TotalProperties: len(properties)}

	var priceSum float64
	var priceN int
	var domSum float64
	var domN int
	for _, p := range properties {
		if p.CurrentListPrice != nil {
			priceSum += *p.CurrentListPrice
			priceN++
		}
		if dom := scoring.DaysOnMarket(p.RawData); dom > 0 {
			domSum += dom
			domN++
		}
	}
	if priceN > 0 {
		avg := priceSum / float64(priceN)
		stats.AverageListPrice = &avg
	}
	if domN > 0 {
		avg := domSum / float64(domN)
		stats.AvgDaysOnMarket = &avg
	}

	if area := geometry.WatchlistArea(properties); area != nil {
		stats.Area = area.Feature()
	}

	c.JSON(http.StatusOK, stats)
}

type scanRequest struct {
	Type string `json:"type"`
}

// TriggerScan queues a manual scan of one watchlist.
func (h *Handler) TriggerScan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid watchlist id"})
		return
	}

	if _, err := h.store.GetWatchlist(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger scan"})
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		req.Type = string(queue.ScanForSale)
	}

	kind := queue.ScanKind(req.Type)
	if kind != queue.ScanForSale && kind != queue.ScanOffMarket {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be for_sale or off_market"})
		return
	}

	job := queue.NewScanJob(id, kind)
	if err := h.scanQueue.Enqueue(job); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue scan job")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scan queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": "Scan queued"})
}
