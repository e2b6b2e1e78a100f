package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Distance3D combines the surface distance with the elevation delta, in meters.
// It falls back to the surface distance when either elevation is missing.
func Distance3D(lat1, lon1 float64, ele1 *float64, lat2, lon2 float64, ele2 *float64) float64 {
	flat := HaversineDistance(lat1, lon1, lat2, lon2)
	if ele1 == nil || ele2 == nil {
		return flat
	}
	d := math.Sqrt(flat*flat + (*ele2-*ele1)*(*ele2-*ele1))
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0
