package poi

import (
	"math"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// CoverageModel holds the constants of the coverage heuristic.
//
// The estimate compares the footprint area of all photos with a disc of
// twice the POI radius. It is an area ratio, not a visibility computation,
// and the blind spot it reports is a fixed marker near the POI rather than
// a located gap.
type CoverageModel struct {
	DefaultFOVDegrees  float64 // used when no FOV is given
	PassScore          float64 // below this, a blind spot is reported
	BlindSpotOffsetDeg float64 // latitude offset of the reported blind spot
}

// DefaultCoverageModel is the model the planner ships with.
var DefaultCoverageModel = CoverageModel{
	DefaultFOVDegrees:  84,
	PassScore:          80,
	BlindSpotOffsetDeg: 0.0001,
}

// Coverage is the outcome of a coverage estimate.
type Coverage struct {
	Score      float64             `json:"score"` // 0-100
	BlindSpots []geometry.GeoPoint `json:"blind_spots"`
}

// CalculateCoverageScore estimates coverage with DefaultCoverageModel.
func CalculateCoverageScore(poi mission.POI, waypoints []geometry.GeoPoint, fovDegrees float64) Coverage {
	return DefaultCoverageModel.Score(poi, waypoints, fovDegrees)
}

// Score estimates coverage: expected = pi*(2r)^2, actual = n*(2r*tan(fov/2))^2,
// score = min(100, actual/expected*100). A POI without a positive radius
// scores 0, and so does a FOV of 0.
func (m CoverageModel) Score(poi mission.POI, waypoints []geometry.GeoPoint, fovDegrees float64) Coverage {
	score := 0.0
	if r := poi.RadiusMeters; r > 0 && !math.IsInf(r, 0) {
		expected := math.Pi * math.Pow(2*r, 2)
		footprint := 2 * r * math.Tan(fovDegrees*math.Pi/180/2)
		actual := float64(len(waypoints)) * footprint * footprint
		score = math.Min(100, actual/expected*100)
	}
	if math.IsNaN(score) {
		score = 0
	}

	cov := Coverage{Score: score, BlindSpots: []geometry.GeoPoint{}}
	if score < m.PassScore {
		cov.BlindSpots = append(cov.BlindSpots, geometry.GeoPoint{
			Lat: poi.Position.Lat + m.BlindSpotOffsetDeg,
			Lng: poi.Position.Lng,
		})
	}
	return cov
}

// ScoreDefaultFOV is Score with the model's DefaultFOVDegrees.
func (m CoverageModel) ScoreDefaultFOV(poi mission.POI, waypoints []geometry.GeoPoint) Coverage {
	return m.Score(poi, waypoints, m.DefaultFOVDegrees)
}
