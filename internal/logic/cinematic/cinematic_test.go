package cinematic

import (
	"errors"
	"math"
	"testing"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

const metersTolerance = 0.05

func params() Params {
	return Params{
		Center:            geometry.GeoPoint{Lat: 48.8584, Lng: 2.2945},
		RadiusMeters:      50,
		AltitudeMeters:    60,
		SpeedMetersPerSec: 5,
		DurationSeconds:   60,
	}
}

// localDistance inverts the equirectangular offset used by the generators.
func localDistance(center, p geometry.GeoPoint) float64 {
	dy := (p.Lat - center.Lat) * geometry.MetersPerDegreeLat
	dx := (p.Lng - center.Lng) * geometry.MetersPerDegreeLat * math.Cos(center.Lat*math.Pi/180)
	return math.Hypot(dx, dy)
}

func TestSampleCount(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		speed    float64
		want     int
	}{
		{"exact", 60, 5, 60},
		{"rounds_up", 10, 2.6, 6},
		{"zero_duration", 0, 5, 0},
		{"negative_speed", 10, -1, 0},
		{"nan", math.NaN(), 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := params()
			p.DurationSeconds, p.SpeedMetersPerSec = tc.duration, tc.speed
			if got := SampleCount(p); got != tc.want {
				t.Errorf("SampleCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSpiral(t *testing.T) {
	p := params()
	pts, err := Spiral(p)
	if err != nil {
		t.Fatalf("Spiral: %v", err)
	}
	if len(pts) != 60 {
		t.Fatalf("len = %d, want 60", len(pts))
	}
	// First sample is due north at full radius.
	if d := localDistance(p.Center, pts[0]); math.Abs(d-p.RadiusMeters) > metersTolerance {
		t.Errorf("first sample at %v m, want %v", d, p.RadiusMeters)
	}
	if pts[0].Lng != p.Center.Lng {
		t.Errorf("first sample should share the center longitude")
	}
	for i := 1; i < len(pts); i++ {
		if localDistance(p.Center, pts[i]) >= localDistance(p.Center, pts[i-1]) {
			t.Fatalf("radius did not shrink at sample %d", i)
		}
	}
	n := float64(len(pts))
	last := p.RadiusMeters * (1 - (n-1)/n)
	if d := localDistance(p.Center, pts[len(pts)-1]); math.Abs(d-last) > metersTolerance {
		t.Errorf("last sample at %v m, want %v", d, last)
	}
}

func TestHelix(t *testing.T) {
	p := params()
	pts, err := Helix(p)
	if err != nil {
		t.Fatalf("Helix: %v", err)
	}
	if len(pts) != 60 {
		t.Fatalf("len = %d, want 60", len(pts))
	}
	for i, pt := range pts {
		if d := localDistance(p.Center, pt); math.Abs(d-p.RadiusMeters) > metersTolerance {
			t.Fatalf("sample %d at %v m, want constant %v", i, d, p.RadiusMeters)
		}
	}
	// Two full turns over 60 samples: sample 30 is back due north.
	if math.Abs(pts[30].Lng-p.Center.Lng) > 1e-9 || pts[30].Lat <= p.Center.Lat {
		t.Errorf("sample 30 = %v, want due north of center", pts[30])
	}
}

func TestGolden(t *testing.T) {
	p := params()
	pts, err := Golden(p)
	if err != nil {
		t.Fatalf("Golden: %v", err)
	}
	if len(pts) != 60 {
		t.Fatalf("len = %d, want 60", len(pts))
	}
	if pts[0] != p.Center {
		t.Errorf("first sample = %v, want the center", pts[0])
	}
	for i, pt := range pts {
		want := p.RadiusMeters * math.Sqrt(float64(i)/60)
		if d := localDistance(p.Center, pt); math.Abs(d-want) > metersTolerance {
			t.Fatalf("sample %d at %v m, want %v", i, d, want)
		}
	}
}

func TestGenerate(t *testing.T) {
	p := params()
	for _, kind := range []Kind{KindSpiral, KindHelix, KindGolden} {
		pts, err := Generate(kind, p)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if len(pts) != SampleCount(p) {
			t.Errorf("%s: len = %d, want %d", kind, len(pts), SampleCount(p))
		}
	}
	if _, err := Generate("zigzag", p); err == nil {
		t.Error("expected error for unknown kind")
	}
	p.DurationSeconds = 1e9
	if _, err := Generate(KindHelix, p); !errors.Is(err, ErrTooManySamples) {
		t.Errorf("error = %v, want ErrTooManySamples", err)
	}
}

func TestGenerators_MaxSamples(t *testing.T) {
	p := params()
	p.DurationSeconds = 1e12
	gens := map[string]func(Params) ([]geometry.GeoPoint, error){
		"spiral": Spiral,
		"helix":  Helix,
		"golden": Golden,
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			pts, err := gen(p)
			if !errors.Is(err, ErrTooManySamples) {
				t.Errorf("error = %v, want ErrTooManySamples", err)
			}
			if pts != nil {
				t.Errorf("got %d points, want none", len(pts))
			}
		})
	}
}

func TestGenerate_EmptyForZeroDuration(t *testing.T) {
	p := params()
	p.DurationSeconds = 0
	pts, err := Generate(KindSpiral, p)
	if err != nil || len(pts) != 0 {
		t.Errorf("got %d points, err %v; want empty, nil", len(pts), err)
	}
}

func TestWaypoints(t *testing.T) {
	p := params()
	pts, err := Helix(p)
	if err != nil {
		t.Fatalf("Helix: %v", err)
	}

	flat := Waypoints(pts, ConstantAltitude(p.AltitudeMeters), mission.ActionNone)
	for i, wp := range flat {
		if wp.Index != i || wp.Altitude != p.AltitudeMeters || wp.Position != pts[i] {
			t.Fatalf("waypoint %d = %+v", i, wp)
		}
	}

	climb := Waypoints(pts, LinearClimb(p.AltitudeMeters, HelixHeightChangeMeters), mission.ActionNone)
	if climb[0].Altitude != p.AltitudeMeters {
		t.Errorf("first altitude = %v, want %v", climb[0].Altitude, p.AltitudeMeters)
	}
	last := climb[len(climb)-1].Altitude
	if math.Abs(last-(p.AltitudeMeters+HelixHeightChangeMeters)) > 1e-9 {
		t.Errorf("last altitude = %v, want %v", last, p.AltitudeMeters+HelixHeightChangeMeters)
	}
	for i := 1; i < len(climb); i++ {
		if climb[i].Altitude <= climb[i-1].Altitude {
			t.Fatalf("altitude did not increase at %d", i)
		}
	}
}

func TestLinearClimb_SingleSample(t *testing.T) {
	if got := LinearClimb(30, 20)(0, 1); got != 30 {
		t.Errorf("single sample altitude = %v, want 30", got)
	}
}
