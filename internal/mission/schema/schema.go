// Package schema is the interchange boundary for mission documents. A
// document is either schema 1.0 (one action per waypoint) or 2.0 (a list of
// actions per waypoint); the variant is read once from schemaVersion and
// never inferred from the waypoint shape.
package schema

import (
	"time"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// Version is a mission document schema version.
type Version string

const (
	V1 Version = "1.0"
	V2 Version = "2.0"
)

// ActionType is a schema 2.0 waypoint action.
type ActionType string

const (
	ActionPhoto       ActionType = "photo"
	ActionVideoStart  ActionType = "videoStart"
	ActionVideoStop   ActionType = "videoStop"
	ActionHover       ActionType = "hover"
	ActionYaw         ActionType = "yaw"
	ActionGimbalPitch ActionType = "gimbalPitch"
	ActionCustom      ActionType = "custom"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionPhoto, ActionVideoStart, ActionVideoStop, ActionHover, ActionYaw, ActionGimbalPitch, ActionCustom:
		return true
	}
	return false
}

// ActionParams are the optional action arguments.
type ActionParams struct {
	DurationMs   *int     `json:"durationMs,omitempty"`
	AngleDegrees *float64 `json:"angleDegrees,omitempty"`
	CustomTag    string   `json:"customTag,omitempty"`
}

// WaypointAction is one action of a schema 2.0 waypoint.
type WaypointAction struct {
	ID     string        `json:"id"`
	Type   ActionType    `json:"type"`
	Params *ActionParams `json:"params,omitempty"`
}

// WaypointV1 carries a single action.
type WaypointV1 struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Altitude float64 `json:"altitude"`
	Index    int     `json:"index"`
	Action   string  `json:"action"` // "photo" or "none"
}

// WaypointV2 carries a list of actions.
type WaypointV2 struct {
	ID       string           `json:"id"`
	Lat      float64          `json:"lat"`
	Lng      float64          `json:"lng"`
	Altitude float64          `json:"altitude"`
	Index    int              `json:"index"`
	Actions  []WaypointAction `json:"actions"`
}

// Config is the flight configuration as documents store it.
type Config struct {
	Altitude     float64 `json:"altitude"`
	Speed        float64 `json:"speed"`
	Overlap      float64 `json:"overlap"`
	Direction    float64 `json:"direction"`
	TravelAxis   string  `json:"travelAxis"`
	PhotoCapture bool    `json:"photoCapture"`
	DroneModel   string  `json:"droneModel"`
}

// ConfigV2 adds the schema 2.0 presentation settings.
type ConfigV2 struct {
	Config
	SchemaVersion Version `json:"schemaVersion"`
	MapStyleID    string  `json:"mapStyleId"`
}

// Stats are document statistics.
type Stats struct {
	WaypointCount    int     `json:"waypointCount"`
	AreaSqm          float64 `json:"areaSqm"`
	EstimatedTimeSec float64 `json:"estimatedTimeSec"`
	TotalDistanceM   float64 `json:"totalDistanceM,omitempty"`
}

// Zone is a drawn area.
type Zone struct {
	ID     string              `json:"id"`
	Points []geometry.GeoPoint `json:"points"`
	Type   string              `json:"type"`
}

// Segment groups waypoints by how they were generated.
type Segment struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"` // grid, orbit, facade, path, poi
	Waypoints []WaypointV1 `json:"waypoints"`
	Order     int          `json:"order"`
}

// Stage is a document mission stage.
type Stage struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	StartWaypointIndex     int     `json:"startWaypointIndex"`
	EndWaypointIndex       int     `json:"endWaypointIndex"`
	EstimatedTimeSec       float64 `json:"estimatedTimeSec"`
	BatteryRequiredPercent float64 `json:"batteryRequiredPercent"`
}

// POI is a document point of interest.
type POI struct {
	ID           string  `json:"id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Altitude     float64 `json:"altitude"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	RadiusMeters float64 `json:"radiusMeters"`
}

// MissionV1 is a schema 1.0 document.
type MissionV1 struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Zones     []Zone       `json:"zones"`
	Waypoints []WaypointV1 `json:"waypoints"`
	Config    Config       `json:"config"`
	Stats     Stats        `json:"stats"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// MissionV2 is a schema 2.0 document.
type MissionV2 struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	SchemaVersion Version      `json:"schemaVersion"`
	Segments      []Segment    `json:"segments"`
	Stages        []Stage      `json:"stages"`
	Waypoints     []WaypointV2 `json:"waypoints"`
	Config        ConfigV2     `json:"config"`
	Stats         Stats        `json:"stats"`
	POIs          []POI        `json:"pois"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Document is a decoded mission document. Exactly one of V1 and V2 is set,
// matching Version.
type Document struct {
	Version Version
	V1      *MissionV1
	V2      *MissionV2
}

// ActionFromV1 maps a schema 1.0 action string to an engine action.
func ActionFromV1(action string) mission.Action {
	if action == string(mission.ActionPhoto) {
		return mission.ActionPhoto
	}
	return mission.ActionNone
}

// HasPhoto reports whether any of actions is a photo.
func HasPhoto(actions []WaypointAction) bool {
	for _, a := range actions {
		if a.Type == ActionPhoto {
			return true
		}
	}
	return false
}
