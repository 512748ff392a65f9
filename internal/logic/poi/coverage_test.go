package poi

import (
	"math"
	"testing"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
)

// These tests pin the coverage estimate. It is a footprint-area ratio, not
// a visibility computation, so the expected numbers come straight from the
// formula rather than from any physical ground truth.

func points(n int) []geometry.GeoPoint {
	return make([]geometry.GeoPoint, n)
}

func expectedScore(radius float64, n int, fov float64) float64 {
	expected := math.Pi * math.Pow(2*radius, 2)
	actual := float64(n) * math.Pow(2*radius*math.Tan(fov*math.Pi/180/2), 2)
	return math.Min(100, actual/expected*100)
}

func TestCalculateCoverageScore_ReferenceExample(t *testing.T) {
	// r = 12 m, 24 waypoints, FOV 84 deg: the ratio is ~619%, clamped to 100.
	cov := CalculateCoverageScore(tower, points(24), 84)
	if cov.Score != expectedScore(12, 24, 84) {
		t.Errorf("Score = %v, want %v", cov.Score, expectedScore(12, 24, 84))
	}
	if cov.Score != 100 {
		t.Errorf("Score = %v, want 100", cov.Score)
	}
	if len(cov.BlindSpots) != 0 {
		t.Errorf("BlindSpots = %v, want none at score %v", cov.BlindSpots, cov.Score)
	}
}

func TestCalculateCoverageScore_BlindSpotIffBelowPass(t *testing.T) {
	for n := 0; n <= 6; n++ {
		cov := CalculateCoverageScore(tower, points(n), 84)
		want := expectedScore(12, n, 84)
		if math.Abs(cov.Score-want) > 1e-9 {
			t.Errorf("n=%d: Score = %v, want %v", n, cov.Score, want)
		}
		if got, want := len(cov.BlindSpots) > 0, cov.Score < 80; got != want {
			t.Errorf("n=%d score %v: blind spot reported = %v, want %v", n, cov.Score, got, want)
		}
	}
}

func TestCalculateCoverageScore_BlindSpotPosition(t *testing.T) {
	cov := CalculateCoverageScore(tower, points(1), 84)
	if len(cov.BlindSpots) != 1 {
		t.Fatalf("got %d blind spots, want 1", len(cov.BlindSpots))
	}
	want := geometry.GeoPoint{Lat: tower.Position.Lat + 0.0001, Lng: tower.Position.Lng}
	if cov.BlindSpots[0] != want {
		t.Errorf("blind spot = %v, want %v", cov.BlindSpots[0], want)
	}
}

func TestCalculateCoverageScore_ZeroFOV(t *testing.T) {
	for _, fov := range []float64{0, math.NaN()} {
		cov := CalculateCoverageScore(tower, points(50), fov)
		if cov.Score != 0 || len(cov.BlindSpots) != 1 {
			t.Errorf("FOV %v: %+v, want score 0 with a blind spot", fov, cov)
		}
	}
}

func TestCoverageModel_ScoreDefaultFOV(t *testing.T) {
	a := DefaultCoverageModel.ScoreDefaultFOV(tower, points(2))
	b := CalculateCoverageScore(tower, points(2), 84)
	if a.Score != b.Score {
		t.Errorf("default FOV should be 84: %v vs %v", a.Score, b.Score)
	}
}

func TestCoverageModel_Custom(t *testing.T) {
	m := CoverageModel{DefaultFOVDegrees: 60, PassScore: 10, BlindSpotOffsetDeg: 0.001}
	cov := m.ScoreDefaultFOV(tower, points(1))
	if want := expectedScore(12, 1, 60); math.Abs(cov.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", cov.Score, want)
	}
	if cov.Score >= 10 && len(cov.BlindSpots) != 0 {
		t.Errorf("score %v above custom pass score should report no blind spot", cov.Score)
	}
}

func TestCalculateCoverageScore_ZeroRadius(t *testing.T) {
	p := tower
	p.RadiusMeters = 0
	cov := CalculateCoverageScore(p, points(50), 84)
	if cov.Score != 0 || len(cov.BlindSpots) != 1 {
		t.Errorf("zero radius: %+v, want score 0 with a blind spot", cov)
	}
}
