// Package poi plans multi-ring, multi-altitude orbits around a point of
// interest and estimates how well they cover it.
package poi

import (
	"errors"
	"fmt"
	"math"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// MinPointsPerRing is the lower bound on samples per ring.
const MinPointsPerRing = 8

// MaxPointsPerRing bounds a single ring.
const MaxPointsPerRing = 100_000

// MaxRings bounds the ring count of one orbit.
const MaxRings = 1_000

// MaxOrbitPoints bounds the photo points of a stacked orbit, counted as the
// sum over rings multiplied by the number of bands.
const MaxOrbitPoints = 1_000_000

// ErrTooManyPoints is returned when an orbit exceeds MaxRings,
// MaxPointsPerRing or MaxOrbitPoints.
var ErrTooManyPoints = errors.New("orbit has too many points")

// OrbitParams describes the ring set around a POI.
type OrbitParams struct {
	RingCount           int     `json:"ring_count"`
	BaseRadiusMeters    float64 `json:"base_radius_m"`
	OverlapPercent      float64 `json:"overlap_percent"`
	AltitudeMeters      float64 `json:"altitude_m"`
	PhotoIntervalMeters float64 `json:"photo_interval_m"`
}

func (p OrbitParams) validate() error {
	if p.RingCount < 0 {
		return fmt.Errorf("ring count must be >= 0, got %d", p.RingCount)
	}
	if p.RingCount > MaxRings {
		return fmt.Errorf("%w: %d rings > %d", ErrTooManyPoints, p.RingCount, MaxRings)
	}
	if !(p.BaseRadiusMeters > 0) || math.IsInf(p.BaseRadiusMeters, 0) {
		return fmt.Errorf("base radius must be > 0, got %g", p.BaseRadiusMeters)
	}
	if !(p.PhotoIntervalMeters > 0) || math.IsInf(p.PhotoIntervalMeters, 0) {
		return fmt.Errorf("photo interval must be > 0, got %g", p.PhotoIntervalMeters)
	}
	return nil
}

// GenerateOrbitRings returns RingCount concentric rings around poi. Ring i
// has radius BaseRadiusMeters*(i+1) and max(8, ceil(circumference/interval))
// evenly spaced points, starting due north and turning clockwise.
func GenerateOrbitRings(poi mission.POI, p OrbitParams) ([][]geometry.GeoPoint, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	counts := make([]int, p.RingCount)
	total := 0
	for i := range counts {
		n := pointsOnCircle(p.BaseRadiusMeters*float64(i+1), p.PhotoIntervalMeters)
		if n > MaxPointsPerRing {
			return nil, fmt.Errorf("%w: ring %d needs more than %d points", ErrTooManyPoints, i, MaxPointsPerRing)
		}
		total += n
		if total > MaxOrbitPoints {
			return nil, fmt.Errorf("%w: more than %d points over %d rings", ErrTooManyPoints, MaxOrbitPoints, i+1)
		}
		counts[i] = n
	}

	rings := make([][]geometry.GeoPoint, 0, p.RingCount)
	for i, n := range counts {
		radius := p.BaseRadiusMeters * float64(i+1)
		ring := make([]geometry.GeoPoint, n)
		for j := range ring {
			angle := float64(j) / float64(n) * 2 * math.Pi
			ring[j] = geometry.Offset(poi.Position, radius, angle)
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

func pointsOnCircle(radius, interval float64) int {
	n := math.Ceil(2 * math.Pi * radius / interval)
	if n > MaxPointsPerRing {
		return MaxPointsPerRing + 1
	}
	return max(MinPointsPerRing, int(n))
}

// Level is the flattened ring set flown at one altitude band.
type Level struct {
	AltitudeMeters float64             `json:"altitude_m"`
	Points         []geometry.GeoPoint `json:"points"`
}

// GenerateStackedLevels repeats the flattened rings at every altitude band,
// in band order.
func GenerateStackedLevels(poi mission.POI, rings [][]geometry.GeoPoint, bands []float64) ([]Level, error) {
	var flat []geometry.GeoPoint
	for _, r := range rings {
		flat = append(flat, r...)
	}
	if len(bands) > 0 && len(flat) > MaxOrbitPoints/len(bands) {
		return nil, fmt.Errorf("%w: %d points x %d bands > %d", ErrTooManyPoints, len(flat), len(bands), MaxOrbitPoints)
	}
	levels := make([]Level, len(bands))
	for i, alt := range bands {
		pts := make([]geometry.GeoPoint, len(flat))
		copy(pts, flat)
		levels[i] = Level{AltitudeMeters: alt, Points: pts}
	}
	return levels, nil
}

// Waypoints flattens levels into one sequence, band by band, indexed from 0.
func Waypoints(levels []Level, action mission.Action) []mission.Waypoint {
	var wps []mission.Waypoint
	for _, lvl := range levels {
		for _, pt := range lvl.Points {
			idx := len(wps)
			wps = append(wps, mission.Waypoint{
				ID:       fmt.Sprintf("wp-%d", idx),
				Position: pt,
				Altitude: lvl.AltitudeMeters,
				Index:    idx,
				Action:   action,
			})
		}
	}
	return wps
}
