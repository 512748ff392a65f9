package poi

import (
	"errors"
	"math"
	"testing"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

const metersTolerance = 0.05

var tower = mission.POI{
	Position:     geometry.GeoPoint{Lat: 48.8584, Lng: 2.2945},
	Altitude:     0,
	Name:         "Tower",
	Category:     mission.CategoryStructure,
	RadiusMeters: 12,
}

func orbit() OrbitParams {
	return OrbitParams{
		RingCount:           3,
		BaseRadiusMeters:    20,
		OverlapPercent:      70,
		AltitudeMeters:      40,
		PhotoIntervalMeters: 5,
	}
}

func localDistance(center, p geometry.GeoPoint) float64 {
	dy := (p.Lat - center.Lat) * geometry.MetersPerDegreeLat
	dx := (p.Lng - center.Lng) * geometry.MetersPerDegreeLat * math.Cos(center.Lat*math.Pi/180)
	return math.Hypot(dx, dy)
}

func TestGenerateOrbitRings(t *testing.T) {
	rings, err := GenerateOrbitRings(tower, orbit())
	if err != nil {
		t.Fatalf("GenerateOrbitRings: %v", err)
	}
	if len(rings) != 3 {
		t.Fatalf("got %d rings, want 3", len(rings))
	}
	for i, ring := range rings {
		radius := 20 * float64(i+1)
		want := int(math.Ceil(2 * math.Pi * radius / 5))
		if len(ring) != want {
			t.Errorf("ring %d has %d points, want %d", i, len(ring), want)
		}
		for j, pt := range ring {
			if d := localDistance(tower.Position, pt); math.Abs(d-radius) > metersTolerance {
				t.Fatalf("ring %d point %d at %v m, want %v", i, j, d, radius)
			}
		}
		if ring[0].Lng != tower.Position.Lng || ring[0].Lat <= tower.Position.Lat {
			t.Errorf("ring %d starts at %v, want due north", i, ring[0])
		}
	}
}

func TestGenerateOrbitRings_MinimumPoints(t *testing.T) {
	p := orbit()
	p.RingCount = 1
	p.BaseRadiusMeters = 2
	p.PhotoIntervalMeters = 10 // circumference 12.6 m would give 2 points
	rings, err := GenerateOrbitRings(tower, p)
	if err != nil {
		t.Fatalf("GenerateOrbitRings: %v", err)
	}
	if len(rings[0]) != MinPointsPerRing {
		t.Errorf("got %d points, want %d", len(rings[0]), MinPointsPerRing)
	}
}

func TestGenerateOrbitRings_Invalid(t *testing.T) {
	cases := map[string]func(*OrbitParams){
		"negative_rings": func(p *OrbitParams) { p.RingCount = -1 },
		"zero_radius":    func(p *OrbitParams) { p.BaseRadiusMeters = 0 },
		"zero_interval":  func(p *OrbitParams) { p.PhotoIntervalMeters = 0 },
		"nan_interval":   func(p *OrbitParams) { p.PhotoIntervalMeters = math.NaN() },
		"tiny_interval":  func(p *OrbitParams) { p.PhotoIntervalMeters = 1e-6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := orbit()
			mutate(&p)
			if _, err := GenerateOrbitRings(tower, p); err == nil {
				t.Error("expected error")
			}
		})
	}

	p := orbit()
	p.RingCount = 0
	rings, err := GenerateOrbitRings(tower, p)
	if err != nil || len(rings) != 0 {
		t.Errorf("zero rings: got %d, err %v", len(rings), err)
	}
}

func TestGenerateStackedLevels(t *testing.T) {
	rings, err := GenerateOrbitRings(tower, orbit())
	if err != nil {
		t.Fatalf("GenerateOrbitRings: %v", err)
	}
	total := 0
	for _, r := range rings {
		total += len(r)
	}

	bands := []float64{30, 50, 70}
	levels, err := GenerateStackedLevels(tower, rings, bands)
	if err != nil {
		t.Fatalf("GenerateStackedLevels: %v", err)
	}
	if len(levels) != len(bands) {
		t.Fatalf("got %d levels, want %d", len(levels), len(bands))
	}
	for i, lvl := range levels {
		if lvl.AltitudeMeters != bands[i] {
			t.Errorf("level %d altitude %v, want %v", i, lvl.AltitudeMeters, bands[i])
		}
		if len(lvl.Points) != total {
			t.Errorf("level %d has %d points, want %d", i, len(lvl.Points), total)
		}
		if lvl.Points[0] != rings[0][0] || lvl.Points[len(rings[0])] != rings[1][0] {
			t.Errorf("level %d does not flatten rings in order", i)
		}
	}

	// Levels do not share storage.
	levels[0].Points[0] = geometry.GeoPoint{}
	if levels[1].Points[0] == (geometry.GeoPoint{}) {
		t.Error("levels share point storage")
	}

	if got, err := GenerateStackedLevels(tower, rings, nil); err != nil || len(got) != 0 {
		t.Errorf("no bands: got %d levels, err %v", len(got), err)
	}
}

func TestGenerateOrbitRings_TooManyPoints(t *testing.T) {
	cases := map[string]func(*OrbitParams){
		"huge_ring_count": func(p *OrbitParams) { p.RingCount = 1 << 62 },
		"above_max_rings": func(p *OrbitParams) { p.RingCount = MaxRings + 1 },
		// Each ring stays under MaxPointsPerRing; the sum is about 6.3M.
		"total_budget": func(p *OrbitParams) {
			p.RingCount, p.BaseRadiusMeters, p.PhotoIntervalMeters = MaxRings, 1, 0.5
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := orbit()
			mutate(&p)
			rings, err := GenerateOrbitRings(tower, p)
			if !errors.Is(err, ErrTooManyPoints) {
				t.Errorf("error = %v, want ErrTooManyPoints", err)
			}
			if rings != nil {
				t.Errorf("got %d rings, want none", len(rings))
			}
		})
	}
}

func TestGenerateStackedLevels_TooManyPoints(t *testing.T) {
	rings, err := GenerateOrbitRings(tower, orbit())
	if err != nil {
		t.Fatalf("GenerateOrbitRings: %v", err)
	}
	bands := make([]float64, MaxOrbitPoints/len(rings[0]))
	if _, err := GenerateStackedLevels(tower, rings, bands); !errors.Is(err, ErrTooManyPoints) {
		t.Errorf("error = %v, want ErrTooManyPoints", err)
	}
}

func TestWaypoints(t *testing.T) {
	levels := []Level{
		{AltitudeMeters: 30, Points: []geometry.GeoPoint{{Lat: 1}, {Lat: 2}}},
		{AltitudeMeters: 50, Points: []geometry.GeoPoint{{Lat: 1}, {Lat: 2}}},
	}
	wps := Waypoints(levels, mission.ActionPhoto)
	if len(wps) != 4 {
		t.Fatalf("got %d waypoints, want 4", len(wps))
	}
	for i, wp := range wps {
		if wp.Index != i {
			t.Errorf("waypoint %d index %d", i, wp.Index)
		}
	}
	if wps[1].Altitude != 30 || wps[2].Altitude != 50 {
		t.Errorf("altitudes = %v, %v; want 30, 50", wps[1].Altitude, wps[2].Altitude)
	}
}
