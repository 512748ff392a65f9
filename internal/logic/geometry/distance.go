package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	// EarthRadiusMeters is the mean radius used for great-circle distances.
	EarthRadiusMeters = 6371000.0

	// MetersPerDegreeLat converts meters to degrees of latitude for the
	// local equirectangular offsets used by orbit and cinematic paths.
	MetersPerDegreeLat = 111320.0
)

// HaversineDistance returns the great-circle distance between a and b in meters.
func HaversineDistance(a, b GeoPoint) float64 {
	if a == b {
		return 0
	}
	// orb works on its own earth radius; rescale to ours.
	return geo.DistanceHaversine(a.orbPoint(), b.orbPoint()) * EarthRadiusMeters / orb.EarthRadius
}

// Offset returns the point radiusMeters away from center at angle radians,
// measured from north toward east. It uses a local equirectangular
// approximation valid for radii up to a few hundred meters.
func Offset(center GeoPoint, radiusMeters, angle float64) GeoPoint {
	cosLat := math.Cos(center.Lat * math.Pi / 180.0)
	return GeoPoint{
		Lat: center.Lat + (radiusMeters/MetersPerDegreeLat)*math.Cos(angle),
		Lng: center.Lng + (radiusMeters/(MetersPerDegreeLat*cosLat))*math.Sin(angle),
	}
}

// PathLength sums the haversine distance between consecutive points.
func PathLength(points []GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineDistance(points[i-1], points[i])
	}
	return total
}
