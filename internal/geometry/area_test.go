package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homewatch/server/internal/models"
)

func coord(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func TestWatchlistArea(t *testing.T) {
	lat1, lng1 := coord(30.0, -97.0)
	lat2, lng2 := coord(31.0, -98.0)
	props := []models.Property{
		{Latitude: lat1, Longitude: lng1},
		{Latitude: lat2, Longitude: lng2},
		{}, // not geocoded, ignored
	}

	area := WatchlistArea(props)
	require.NotNil(t, area)
	assert.Equal(t, 2, area.Count)
	assert.Equal(t, orb.Point{-97.5, 30.5}, area.Centroid)
	assert.Equal(t, orb.Bound{Min: orb.Point{-98.0, 30.0}, Max: orb.Point{-97.0, 31.0}}, area.Bound)
}

func TestWatchlistArea_NoCoordinates(t *testing.T) {
	assert.Nil(t, WatchlistArea(nil))
	assert.Nil(t, WatchlistArea([]models.Property{{}, {}}))
}

func TestArea_Feature(t *testing.T) {
	lat, lng := coord(30.0, -97.0)
	area := WatchlistArea([]models.Property{{Latitude: lat, Longitude: lng}})
	require.NotNil(t, area)

	f := area.Feature()
	assert.Equal(t, 1, f.Properties["property_count"])
	assert.Equal(t, []float64{-97.0, 30.0}, f.Properties["centroid"])
	assert.NotNil(t, f.Geometry)
}
