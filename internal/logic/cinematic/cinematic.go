// Package cinematic generates video flight paths around a center point.
// Generators return horizontal positions only; altitude and actions are
// applied by Waypoints.
package cinematic

import (
	"errors"
	"fmt"
	"math"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// MetersPerSample is the travel distance between two samples.
const MetersPerSample = 5.0

// MaxSamples bounds the length of a generated path.
const MaxSamples = 100_000

// GoldenRatio drives the phyllotactic angle step of the golden path.
const GoldenRatio = 1.618033988749

// HelixHeightChangeMeters is the climb usually applied over a helix, see
// LinearClimb.
const HelixHeightChangeMeters = 20.0

// ErrTooManySamples is returned when duration and speed exceed MaxSamples.
var ErrTooManySamples = errors.New("path has too many samples")

// Kind selects a path generator.
type Kind string

const (
	KindSpiral Kind = "spiral"
	KindHelix  Kind = "helix"
	KindGolden Kind = "golden"
)

// Params describes a cinematic path.
type Params struct {
	Center            geometry.GeoPoint `json:"center"`
	RadiusMeters      float64           `json:"radius_m"`
	AltitudeMeters    float64           `json:"altitude_m"`
	SpeedMetersPerSec float64           `json:"speed_mps"`
	DurationSeconds   float64           `json:"duration_s"`
}

// SampleCount returns ceil(duration * speed / 5), or 0 for non-positive or
// non-finite inputs.
func SampleCount(p Params) int {
	n := math.Ceil(p.DurationSeconds * p.SpeedMetersPerSec / MetersPerSample)
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Spiral shrinks linearly from RadiusMeters to the center over two turns.
func Spiral(p Params) ([]geometry.GeoPoint, error) {
	return sweep(p, func(i, n int) (float64, float64) {
		t := float64(i) / float64(n)
		return p.RadiusMeters * (1 - t), t * 4 * math.Pi
	})
}

// Helix keeps RadiusMeters over two turns.
func Helix(p Params) ([]geometry.GeoPoint, error) {
	return sweep(p, func(i, n int) (float64, float64) {
		t := float64(i) / float64(n)
		return p.RadiusMeters, t * 4 * math.Pi
	})
}

// Golden spreads samples like sunflower seeds: radius grows with
// sqrt(t) and the angle advances by the golden angle per sample.
func Golden(p Params) ([]geometry.GeoPoint, error) {
	return sweep(p, func(i, n int) (float64, float64) {
		t := float64(i) / float64(n)
		return p.RadiusMeters * math.Sqrt(t), 2 * math.Pi * GoldenRatio * float64(i)
	})
}

func sweep(p Params, polar func(i, n int) (radius, angle float64)) ([]geometry.GeoPoint, error) {
	n := SampleCount(p)
	if n > MaxSamples {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySamples, n, MaxSamples)
	}
	if n == 0 {
		return nil, nil
	}
	points := make([]geometry.GeoPoint, n)
	for i := range points {
		r, a := polar(i, n)
		points[i] = geometry.Offset(p.Center, r, a)
	}
	return points, nil
}

// Generate dispatches to the generator for kind.
func Generate(kind Kind, p Params) ([]geometry.GeoPoint, error) {
	switch kind {
	case KindSpiral:
		return Spiral(p)
	case KindHelix:
		return Helix(p)
	case KindGolden:
		return Golden(p)
	default:
		return nil, fmt.Errorf("unknown path kind %q (want %s, %s or %s)", kind, KindSpiral, KindHelix, KindGolden)
	}
}

// AltitudeProfile returns the altitude of sample i out of n.
type AltitudeProfile func(i, n int) float64

// ConstantAltitude flies every sample at alt.
func ConstantAltitude(alt float64) AltitudeProfile {
	return func(int, int) float64 { return alt }
}

// LinearClimb rises from base to base+climb across the path.
func LinearClimb(base, climb float64) AltitudeProfile {
	return func(i, n int) float64 {
		if n <= 1 {
			return base
		}
		return base + climb*float64(i)/float64(n-1)
	}
}

// Waypoints turns path samples into a waypoint sequence indexed from 0.
func Waypoints(points []geometry.GeoPoint, alt AltitudeProfile, action mission.Action) []mission.Waypoint {
	wps := make([]mission.Waypoint, len(points))
	for i, pt := range points {
		wps[i] = mission.Waypoint{
			ID:       fmt.Sprintf("wp-%d", i),
			Position: pt,
			Altitude: alt(i, len(points)),
			Index:    i,
			Action:   action,
		}
	}
	return wps
}
