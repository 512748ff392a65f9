package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint is a WGS84 position in signed degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" msgpack:"lng"`
}

// orbPoint converts to orb's [lng, lat] ordering.
func (p GeoPoint) orbPoint() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func fromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

// Rotate rotates point about center by angleDegrees (counter-clockwise in
// lng/lat space). The rotation is planar on the raw coordinate pairs, which
// is good enough at survey scale.
func Rotate(point, center GeoPoint, angleDegrees float64) GeoPoint {
	rad := angleDegrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	dx := point.Lng - center.Lng
	dy := point.Lat - center.Lat
	return GeoPoint{
		Lat: center.Lat + dx*sin + dy*cos,
		Lng: center.Lng + dx*cos - dy*sin,
	}
}

// CloseRing returns a copy of ring whose last point repeats the first.
// A ring that is already closed is copied unchanged.
func CloseRing(ring []GeoPoint) []GeoPoint {
	if len(ring) == 0 {
		return nil
	}
	out := make([]GeoPoint, len(ring), len(ring)+1)
	copy(out, ring)
	if ring[0] != ring[len(ring)-1] {
		out = append(out, ring[0])
	}
	return out
}

// toOrbRing converts ring to a closed orb.Ring.
func toOrbRing(ring []GeoPoint) orb.Ring {
	closed := CloseRing(ring)
	r := make(orb.Ring, len(closed))
	for i, p := range closed {
		r[i] = p.orbPoint()
	}
	return r
}

// Bounds is an axis-aligned lat/lng box.
type Bounds struct {
	Min GeoPoint // south-west corner
	Max GeoPoint // north-east corner
}

// BoundsOf returns the bounding box of ring.
func BoundsOf(ring []GeoPoint) Bounds {
	if len(ring) == 0 {
		return Bounds{}
	}
	b := toOrbRing(ring).Bound()
	return Bounds{Min: fromOrb(b.Min), Max: fromOrb(b.Max)}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.Min.Lat + b.Max.Lat) / 2.0,
		Lng: (b.Min.Lng + b.Max.Lng) / 2.0,
	}
}

// Pad grows the box by d degrees on every side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{
		Min: GeoPoint{Lat: b.Min.Lat - d, Lng: b.Min.Lng - d},
		Max: GeoPoint{Lat: b.Max.Lat + d, Lng: b.Max.Lng + d},
	}
}

// Contains reports whether p lies inside or on the edge of the box.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.Min.Lat && p.Lat <= b.Max.Lat &&
		p.Lng >= b.Min.Lng && p.Lng <= b.Max.Lng
}
