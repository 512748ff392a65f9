// Package grid computes boustrophedon survey paths over area outlines and
// the statistics derived from them.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// MetersPerDegree converts swath width to line spacing (equatorial
// approximation, not geometry.MetersPerDegreeLat).
const MetersPerDegree = 111111.0

// MaxSamples bounds the number of candidate points a single outline may
// produce before any membership test.
const MaxSamples = 4_000_000

// minAreaSqm is the area under which an outline is treated as degenerate.
const minAreaSqm = 1e-3

// ErrTooDense is returned when the spacing is so small for the outline that
// the sweep would exceed MaxSamples.
var ErrTooDense = errors.New("grid spacing too small for outline")

// Plan holds the sweep parameters derived from an outline and a config.
type Plan struct {
	SpacingDeg     float64           // distance between sweep lines and between samples
	Center         geometry.GeoPoint // rotation center (bounding box center)
	Extent         geometry.Bounds   // bounding box expanded by the margin
	Lines          int               // number of sweep lines
	SamplesPerLine int               // samples on each line, both ends included
}

// Spacing returns the sweep line spacing in degrees for cfg.
func Spacing(cfg mission.FlightConfig) float64 {
	return cfg.AltitudeMeters * (1 - cfg.OverlapPercent/100) * 2 / MetersPerDegree
}

// CalculatePlan derives the sweep plan for outline. It returns a nil plan and
// no error when the outline or the spacing cannot produce any waypoint, and
// ErrTooDense when the sweep would exceed MaxSamples.
func CalculatePlan(outline []geometry.GeoPoint, cfg mission.FlightConfig) (*Plan, error) {
	if len(outline) < 3 {
		return nil, nil
	}
	ring := geometry.CloseRing(outline)
	if geometry.PolygonArea(ring) <= minAreaSqm {
		return nil, nil
	}
	spacing := Spacing(cfg)
	if math.IsNaN(spacing) || math.IsInf(spacing, 0) || spacing <= 0 {
		return nil, nil
	}

	bounds := geometry.BoundsOf(ring)
	extent := bounds.Pad(2 * spacing)

	// Lines step across one axis; samples run along the other.
	across := extent.Max.Lat - extent.Min.Lat
	along := extent.Max.Lng - extent.Min.Lng
	if cfg.TravelAxis == mission.AxisNS {
		across, along = along, across
	}

	// Counted as floats so a tiny spacing cannot overflow int.
	lines := math.Floor(across/spacing) + 1
	samples := math.Ceil(along/spacing) + 1
	if !(lines*samples <= MaxSamples) {
		return nil, fmt.Errorf("%w: %.0f lines x %.0f samples", ErrTooDense, lines, samples)
	}

	return &Plan{
		SpacingDeg:     spacing,
		Center:         bounds.Center(),
		Extent:         extent,
		Lines:          int(lines),
		SamplesPerLine: int(samples),
	}, nil
}

// Generate returns the waypoints covering outline. Outlines with fewer than
// three points or no area yield an empty sequence and no error.
func Generate(outline []geometry.GeoPoint, cfg mission.FlightConfig) ([]mission.Waypoint, error) {
	plan, err := CalculatePlan(outline, cfg)
	if plan == nil || err != nil {
		return nil, err
	}
	return plan.Waypoints(outline, cfg), nil
}

// Waypoints sweeps the plan over outline and keeps the samples inside it.
func (p *Plan) Waypoints(outline []geometry.GeoPoint, cfg mission.FlightConfig) []mission.Waypoint {
	debug.Verbose("Grid spacing %.7f deg, %d lines, %d samples/line", p.SpacingDeg, p.Lines, p.SamplesPerLine)

	ring := geometry.CloseRing(outline)
	steps := p.SamplesPerLine - 1
	action := cfg.Action()
	var wps []mission.Waypoint

	for line := 0; line < p.Lines; line++ {
		// Boustrophedon: even lines forward, odd lines reversed.
		forward := line%2 == 0
		before := len(wps)
		for s := 0; s <= steps; s++ {
			t := 0.0
			if steps > 0 {
				t = float64(s) / float64(steps)
			}
			if !forward {
				t = 1 - t
			}
			pt := p.sample(line, t, cfg.TravelAxis)
			rotated := geometry.Rotate(pt, p.Center, cfg.GridDirectionDegrees)
			if !geometry.PointInPolygon(rotated, ring) {
				continue
			}
			idx := len(wps)
			wps = append(wps, mission.Waypoint{
				ID:       waypointID(idx),
				Position: rotated,
				Altitude: cfg.AltitudeMeters,
				Index:    idx,
				Action:   action,
			})
		}
		debug.Trace("line %d (forward=%v): %d waypoints", line, forward, len(wps)-before)
	}
	return wps
}

// sample returns the unrotated point at fraction t along the given line.
func (p *Plan) sample(line int, t float64, axis mission.TravelAxis) geometry.GeoPoint {
	lo, hi := p.Extent.Min, p.Extent.Max
	offset := float64(line) * p.SpacingDeg
	if axis == mission.AxisNS {
		return geometry.GeoPoint{
			Lat: lo.Lat + (hi.Lat-lo.Lat)*t,
			Lng: lo.Lng + offset,
		}
	}
	return geometry.GeoPoint{
		Lat: lo.Lat + offset,
		Lng: lo.Lng + (hi.Lng-lo.Lng)*t,
	}
}

// GenerateAreas generates each outline in input order and concatenates the
// results, renumbering indices and ids across the whole mission.
func GenerateAreas(areas [][]geometry.GeoPoint, cfg mission.FlightConfig) ([]mission.Waypoint, error) {
	var all []mission.Waypoint
	for i, outline := range areas {
		wps, err := Generate(outline, cfg)
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", i, err)
		}
		all = append(all, wps...)
	}
	return Renumber(all), nil
}

// Renumber returns a copy of wps with indices 0..n-1 and ids wp-<index>.
func Renumber(wps []mission.Waypoint) []mission.Waypoint {
	out := mission.Reindex(wps)
	for i := range out {
		out[i].ID = waypointID(i)
	}
	return out
}

func waypointID(idx int) string {
	return fmt.Sprintf("wp-%d", idx)
}
