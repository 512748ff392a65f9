package geometry

import (
	"math"

	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// PointInPolygon reports whether point lies inside ring. The ring is closed
// if needed. Points exactly on an edge or vertex count as inside.
func PointInPolygon(point GeoPoint, ring []GeoPoint) bool {
	if len(ring) < 3 {
		return false
	}
	return planar.RingContains(toOrbRing(ring), point.orbPoint())
}

// PolygonArea returns the area enclosed by ring in square meters.
// Rings with fewer than 3 distinct points have zero area.
func PolygonArea(ring []GeoPoint) float64 {
	if distinctPoints(ring) < 3 {
		return 0
	}
	return math.Abs(geo.Area(toOrbRing(ring)))
}

func distinctPoints(ring []GeoPoint) int {
	seen := make(map[GeoPoint]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// RectangleFromCorners builds the 4-corner outline produced by the
// rectangle drawing tool from two opposite corners, in NW, NE, SE, SW order
// regardless of which diagonal was dragged.
func RectangleFromCorners(a, b GeoPoint) []GeoPoint {
	north := math.Max(a.Lat, b.Lat)
	south := math.Min(a.Lat, b.Lat)
	east := math.Max(a.Lng, b.Lng)
	west := math.Min(a.Lng, b.Lng)
	return []GeoPoint{
		{Lat: north, Lng: west},
		{Lat: north, Lng: east},
		{Lat: south, Lng: east},
		{Lat: south, Lng: west},
	}
}
