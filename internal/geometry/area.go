package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"homewatch/server/internal/models"
)

// Area summarizes where a watchlist's geocoded properties sit on the map.
type Area struct {
	Count    int
	Bound    orb.Bound
	Centroid orb.Point
}

// WatchlistArea computes the bounding box and centroid of every property
// that carries coordinates. Returns nil when nothing is geocoded yet.
func WatchlistArea(props []models.Property) *Area {
	var points orb.MultiPoint
	for _, p := range props {
		if p.Latitude != nil && p.Longitude != nil {
			points = append(points, orb.Point{*p.Longitude, *p.Latitude})
		}
	}
	if len(points) == 0 {
		return nil
	}

	var sumX, sumY float64
	for _, pt := range points {
		sumX += pt[0]
		sumY += pt[1]
	}
	n := float64(len(points))

	return &Area{
		Count:    len(points),
		Bound:    points.Bound(),
		Centroid: orb.Point{sumX / n, sumY / n},
	}
}

// Feature renders the area as a GeoJSON feature for API consumers.
func (a *Area) Feature() *geojson.Feature {
	f := geojson.NewFeature(a.Bound.ToPolygon())
	f.Properties["centroid"] = []float64{a.Centroid[0], a.Centroid[1]}
	f.Properties["property_count"] = a.Count
	return f
}
