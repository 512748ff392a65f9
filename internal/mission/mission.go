// Package mission holds the value types shared by the planning engine.
// Every operation on them returns new values; nothing is mutated in place.
package mission

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
)

var (
	ErrInvalidSpeed    = errors.New("speed must be a positive number of meters per second")
	ErrInvalidAltitude = errors.New("altitude must be a positive number of meters")
	ErrInvalidOverlap  = errors.New("overlap must be between 50 and 90 percent")
	ErrInvalidBattery  = errors.New("battery profile is invalid")
)

// Action is what the drone does at a waypoint.
type Action string

const (
	ActionNone  Action = "none"
	ActionPhoto Action = "photo"
)

// TravelAxis selects the direction sweep lines are flown in.
type TravelAxis string

const (
	AxisEW TravelAxis = "EW" // lines run east-west, stepped north-south
	AxisNS TravelAxis = "NS" // lines run north-south, stepped east-west
)

// Waypoint is one point of a flight path. Index is a position marker that is
// renumbered whenever a sequence is regenerated; ID carries identity.
type Waypoint struct {
	ID       string            `json:"id" msgpack:"id"`
	Position geometry.GeoPoint `json:"position" msgpack:"position"`
	Altitude float64           `json:"altitude" msgpack:"altitude"` // meters AGL
	Index    int               `json:"index" msgpack:"index"`
	Action   Action            `json:"action" msgpack:"action"`
}

// Reindex returns a copy of wps with indices renumbered from 0.
func Reindex(wps []Waypoint) []Waypoint {
	out := make([]Waypoint, len(wps))
	for i, wp := range wps {
		wp.Index = i
		out[i] = wp
	}
	return out
}

// Positions returns the horizontal positions of wps.
func Positions(wps []Waypoint) []geometry.GeoPoint {
	out := make([]geometry.GeoPoint, len(wps))
	for i, wp := range wps {
		out[i] = wp.Position
	}
	return out
}

// FlightConfig holds the parameters of a survey flight.
type FlightConfig struct {
	AltitudeMeters       float64    `json:"altitude_m" msgpack:"altitude_m"`
	SpeedMetersPerSec    float64    `json:"speed_mps" msgpack:"speed_mps"`
	OverlapPercent       float64    `json:"overlap_percent" msgpack:"overlap_percent"`
	GridDirectionDegrees float64    `json:"direction_deg" msgpack:"direction_deg"`
	TravelAxis           TravelAxis `json:"travel_axis" msgpack:"travel_axis"`
	CapturePhotos        bool       `json:"capture_photos" msgpack:"capture_photos"`
	DroneModel           string     `json:"drone_model,omitempty" msgpack:"drone_model"`
}

// Validate checks the ranges the planner depends on.
func (c FlightConfig) Validate() error {
	if !finite(c.AltitudeMeters) || c.AltitudeMeters <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidAltitude, c.AltitudeMeters)
	}
	if !finite(c.SpeedMetersPerSec) || c.SpeedMetersPerSec <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidSpeed, c.SpeedMetersPerSec)
	}
	if !finite(c.OverlapPercent) || c.OverlapPercent < 50 || c.OverlapPercent > 90 {
		return fmt.Errorf("%w: got %g", ErrInvalidOverlap, c.OverlapPercent)
	}
	if !finite(c.GridDirectionDegrees) || c.GridDirectionDegrees < 0 || c.GridDirectionDegrees >= 360 {
		return fmt.Errorf("grid direction must be between 0 and 359 degrees, got %g", c.GridDirectionDegrees)
	}
	if c.TravelAxis != AxisEW && c.TravelAxis != AxisNS {
		return fmt.Errorf("travel axis must be %s or %s, got %q", AxisEW, AxisNS, c.TravelAxis)
	}
	return nil
}

// Action returns the waypoint action implied by CapturePhotos.
func (c FlightConfig) Action() Action {
	if c.CapturePhotos {
		return ActionPhoto
	}
	return ActionNone
}

// Stats are aggregate figures derived from a waypoint sequence. They are
// never authoritative and can always be recomputed.
type Stats struct {
	WaypointCount        int     `json:"waypoint_count" msgpack:"waypoint_count"`
	AreaSquareMeters     float64 `json:"area_sqm" msgpack:"area_sqm"`
	EstimatedTimeSeconds float64 `json:"estimated_time_s" msgpack:"estimated_time_s"`
	TotalDistanceMeters  float64 `json:"total_distance_m" msgpack:"total_distance_m"`
}

// POICategory classifies a point of interest.
type POICategory string

const (
	CategoryStructure POICategory = "structure"
	CategoryObject    POICategory = "object"
	CategoryTarget    POICategory = "target"
	CategoryOther     POICategory = "other"
)

// POI is a point of interest to orbit around.
type POI struct {
	ID           string            `json:"id,omitempty" msgpack:"id"`
	Position     geometry.GeoPoint `json:"position" msgpack:"position"`
	Altitude     float64           `json:"altitude" msgpack:"altitude"`
	Name         string            `json:"name" msgpack:"name"`
	Category     POICategory       `json:"category" msgpack:"category"`
	RadiusMeters float64           `json:"radius_m" msgpack:"radius_m"` // nominal subject size
}

// BatteryProfile describes the flight battery.
type BatteryProfile struct {
	CapacityMilliampHours float64 `json:"capacity_mah" msgpack:"capacity_mah"`
	Voltage               float64 `json:"voltage" msgpack:"voltage"`
	ReservePercent        float64 `json:"reserve_percent" msgpack:"reserve_percent"`
	HoverCurrentAmps      float64 `json:"hover_current_a" msgpack:"hover_current_a"`
	CruiseCurrentAmps     float64 `json:"cruise_current_a" msgpack:"cruise_current_a"`
}

// DefaultBattery is a typical 3S 5000 mAh pack.
var DefaultBattery = BatteryProfile{
	CapacityMilliampHours: 5000,
	Voltage:               11.1,
	ReservePercent:        20,
	HoverCurrentAmps:      15,
	CruiseCurrentAmps:     10,
}

// Validate rejects profiles that leave no usable capacity.
func (b BatteryProfile) Validate() error {
	if !finite(b.CapacityMilliampHours) || b.CapacityMilliampHours <= 0 {
		return fmt.Errorf("%w: capacity must be > 0 mAh, got %g", ErrInvalidBattery, b.CapacityMilliampHours)
	}
	if !finite(b.ReservePercent) || b.ReservePercent < 0 || b.ReservePercent >= 100 {
		return fmt.Errorf("%w: reserve must be in [0, 100), got %g", ErrInvalidBattery, b.ReservePercent)
	}
	if b.HoverCurrentAmps < 0 || b.CruiseCurrentAmps < 0 {
		return fmt.Errorf("%w: currents must be >= 0", ErrInvalidBattery)
	}
	return nil
}

// UsableCapacityAh returns the capacity left above the reserve, in Ah.
func (b BatteryProfile) UsableCapacityAh() float64 {
	return (b.CapacityMilliampHours / 1000.0) * (1 - b.ReservePercent/100.0)
}

// Stage is a contiguous range of a waypoint sequence flyable on one battery.
// StartIndex and EndIndex are both inclusive.
type Stage struct {
	ID                     string  `json:"id" msgpack:"id"`
	Name                   string  `json:"name" msgpack:"name"`
	StartIndex             int     `json:"start_index" msgpack:"start_index"`
	EndIndex               int     `json:"end_index" msgpack:"end_index"`
	EstimatedTimeSeconds   float64 `json:"estimated_time_s" msgpack:"estimated_time_s"`
	BatteryRequiredPercent float64 `json:"battery_required_percent" msgpack:"battery_required_percent"`
}

// Len returns the number of waypoints in the stage.
func (s Stage) Len() int {
	return s.EndIndex - s.StartIndex + 1
}

// ResumeToken allows resuming a mission from a waypoint, as long as the
// plan fingerprint still matches.
type ResumeToken struct {
	MissionID       string    `json:"mission_id" msgpack:"mission_id"`
	WaypointIndex   int       `json:"waypoint_index" msgpack:"waypoint_index"`
	StageIndex      int       `json:"stage_index" msgpack:"stage_index"`
	Timestamp       time.Time `json:"timestamp" msgpack:"timestamp"`
	PlanFingerprint string    `json:"plan_fingerprint" msgpack:"plan_fingerprint"`
}

// Zone is one drawn survey area.
type Zone struct {
	ID     string              `json:"id" msgpack:"id"`
	Points []geometry.GeoPoint `json:"points" msgpack:"points"`
	Kind   string              `json:"kind" msgpack:"kind"` // "polygon" or "rectangle"
}

// Mission is a complete flight plan.
type Mission struct {
	ID        string       `json:"id" msgpack:"id"`
	Name      string       `json:"name" msgpack:"name"`
	Zones     []Zone       `json:"zones,omitempty" msgpack:"zones"`
	Waypoints []Waypoint   `json:"waypoints" msgpack:"waypoints"`
	Config    FlightConfig `json:"config" msgpack:"config"`
	Stats     Stats        `json:"stats" msgpack:"stats"`
	Stages    []Stage      `json:"stages,omitempty" msgpack:"stages"`
	POIs      []POI        `json:"pois,omitempty" msgpack:"pois"`
	CreatedAt time.Time    `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" msgpack:"updated_at"`
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
