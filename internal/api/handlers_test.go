package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homewatch/server/internal/batch"
	"homewatch/server/internal/models"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type testEnv struct {
	store  storage.Store
	queue  *queue.ScanQueue
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()

	store, err := storage.NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	q := queue.NewScanQueue(10, logger)
	t.Cleanup(func() { _ = q.Close() })

	handler := NewHandler(store, batch.NewCoordinator(store, logger), q, logger)
	router := gin.New()
	SetupRoutes(router, handler)

	return &testEnv{store: store, queue: q, router: router}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createWatchlist(t *testing.T) int64 {
	t.Helper()
	w := &models.Watchlist{Name: "Test Watchlist", IsActive: true}
	require.NoError(t, e.store.CreateWatchlist(context.Background(), w))
	return w.ID
}

func TestStoreProperties(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	w := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
		"watchlist_id": wid,
		"properties": []gin.H{
			{"property_id": "L-1", "current_status": "for_sale", "current_list_price": 500000},
			{"property_id": "L-2", "current_status": "pending", "current_list_price": 300000},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var summary batch.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.NewCount)
	assert.Equal(t, 0, summary.UpdatedCount)
	assert.Equal(t, 2, summary.TotalProcessed)
}

func TestStoreProperties_UnknownWatchlist(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
		"watchlist_id": 999,
		"properties":   []gin.H{{"property_id": "L-1", "current_status": "for_sale"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreProperties_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/properties/store", gin.H{"properties": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreProperties(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	resp := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
		"watchlist_id": wid,
		"properties":   []gin.H{{"property_id": "L-1", "current_status": "for_sale", "current_list_price": 500000}},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	w := env.request(t, http.MethodPost, "/api/properties/score", gin.H{"watchlist_id": wid})
	require.Equal(t, http.StatusOK, w.Code)

	var summary batch.ScoreSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.ScoredCount)

	// Neither id supplied
	w = env.request(t, http.MethodPost, "/api/properties/score", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProperties(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	resp := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
		"watchlist_id": wid,
		"properties":   []gin.H{{"property_id": "L-1", "current_status": "for_sale"}},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	w := env.request(t, http.MethodGet, "/api/properties?watchlist_id="+itoa(wid), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var props []models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &props))
	require.Len(t, props, 1)
	assert.Equal(t, "L-1", props[0].ListingID)

	w = env.request(t, http.MethodGet, "/api/properties", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProperty_NotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/api/properties/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPropertyHistory(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	// Two snapshots produce one price-reduction event.
	for _, price := range []float64{500000, 450000} {
		resp := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
			"watchlist_id": wid,
			"properties":   []gin.H{{"property_id": "L-1", "current_status": "for_sale", "current_list_price": price}},
		})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	p, err := env.store.GetPropertyByListingID(context.Background(), "L-1")
	require.NoError(t, err)

	w := env.request(t, http.MethodGet, "/api/properties/"+itoa(p.ID)+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                  `json:"success"`
		History []models.HistoryEvent `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.History, 1)
	assert.Equal(t, models.EventPriceReduction, body.History[0].EventType)
}

func TestCreateAndListWatchlists(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/watchlists", gin.H{
		"name":             "Austin",
		"location":         "Austin, TX",
		"track_off_market": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Watchlist
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.IsActive)
	assert.True(t, created.TrackOffMarket)

	w = env.request(t, http.MethodGet, "/api/watchlists", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var lists []models.Watchlist
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lists))
	assert.Len(t, lists, 1)

	w = env.request(t, http.MethodPost, "/api/watchlists", gin.H{"location": "nameless"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWatchlistStats(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	resp := env.request(t, http.MethodPost, "/api/properties/store", gin.H{
		"watchlist_id": wid,
		"properties": []gin.H{
			{"property_id": "L-1", "current_status": "for_sale", "current_list_price": 400000, "latitude": 30.0, "longitude": -97.0},
			{"property_id": "L-2", "current_status": "for_sale", "current_list_price": 600000, "latitude": 31.0, "longitude": -98.0},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	w := env.request(t, http.MethodGet, "/api/watchlists/"+itoa(wid)+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		TotalProperties  int         `json:"total_properties"`
		AverageListPrice *float64    `json:"average_list_price"`
		Area             interface{} `json:"area"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalProperties)
	require.NotNil(t, stats.AverageListPrice)
	assert.Equal(t, 500000.0, *stats.AverageListPrice)
	assert.NotNil(t, stats.Area)
}

func TestTriggerScan(t *testing.T) {
	env := newTestEnv(t)
	wid := env.createWatchlist(t)

	w := env.request(t, http.MethodPost, "/api/watchlists/"+itoa(wid)+"/scan", gin.H{"type": "off_market"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, env.queue.Len())

	w = env.request(t, http.MethodPost, "/api/watchlists/"+itoa(wid)+"/scan", gin.H{"type": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/watchlists/999/scan", gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
