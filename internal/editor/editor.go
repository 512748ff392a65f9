// Package editor holds the interactive mission editing state. Every change
// goes through Apply, which returns a new State and leaves its input
// untouched, so earlier states can be kept as undo snapshots.
package editor

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/grid"
	"github.com/cjeanneret/FlyGo/internal/logic/plan"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// State is the editable part of a mission.
type State struct {
	MissionID string               `json:"mission_id"`
	Zones     []mission.Zone       `json:"zones"`
	Waypoints []mission.Waypoint   `json:"waypoints"`
	Config    mission.FlightConfig `json:"config"`
	Stats     mission.Stats        `json:"stats"`
}

// NewState returns an empty state with a fresh mission id.
func NewState(cfg mission.FlightConfig) State {
	return State{MissionID: uuid.NewString(), Config: cfg}
}

// Mission returns s as a mission named name.
func (s State) Mission(name string, at time.Time) mission.Mission {
	return mission.Mission{
		ID:        s.MissionID,
		Name:      name,
		Zones:     slices.Clone(s.Zones),
		Waypoints: slices.Clone(s.Waypoints),
		Config:    s.Config,
		Stats:     s.Stats,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Command is one editing operation.
type Command interface {
	apply(State) (State, error)
}

// Apply returns the state obtained by running cmd on s. On error s is
// returned unchanged.
func Apply(s State, cmd Command) (State, error) {
	next, err := cmd.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// regenerate rebuilds waypoints and stats from the zones of s.
func regenerate(s State) (State, error) {
	areas := plan.Areas(s.Zones)
	wps, err := grid.GenerateAreas(areas, s.Config)
	if err != nil {
		return s, err
	}
	stats, err := grid.ComputeAreasStats(wps, areas, s.Config)
	if err != nil {
		return s, err
	}
	debug.Verbose("editor: %d zones -> %d waypoints", len(s.Zones), len(wps))
	s.Waypoints = wps
	s.Stats = stats
	return s, nil
}

// AddZone appends a zone and regenerates the grid.
type AddZone struct {
	Zone mission.Zone
}

func (c AddZone) apply(s State) (State, error) {
	z := c.Zone
	z.Points = slices.Clone(z.Points)
	s.Zones = append(slices.Clone(s.Zones), z)
	return regenerate(s)
}

// RemoveZone drops the zone with the given id and regenerates the grid.
type RemoveZone struct {
	ID string
}

func (c RemoveZone) apply(s State) (State, error) {
	s.Zones = slices.DeleteFunc(slices.Clone(s.Zones), func(z mission.Zone) bool {
		return z.ID == c.ID
	})
	return regenerate(s)
}

// ConfigPatch holds the flight parameters to change; nil fields are kept.
type ConfigPatch struct {
	AltitudeMeters       *float64            `json:"altitude_m,omitempty"`
	SpeedMetersPerSec    *float64            `json:"speed_mps,omitempty"`
	OverlapPercent       *float64            `json:"overlap_percent,omitempty"`
	GridDirectionDegrees *float64            `json:"direction_deg,omitempty"`
	TravelAxis           *mission.TravelAxis `json:"travel_axis,omitempty"`
	CapturePhotos        *bool               `json:"capture_photos,omitempty"`
	DroneModel           *string             `json:"drone_model,omitempty"`
}

// UpdateConfig merges a partial flight config and regenerates the grid.
type UpdateConfig struct {
	Patch ConfigPatch
}

func (c UpdateConfig) apply(s State) (State, error) {
	p := c.Patch
	cfg := s.Config
	if p.AltitudeMeters != nil {
		cfg.AltitudeMeters = *p.AltitudeMeters
	}
	if p.SpeedMetersPerSec != nil {
		cfg.SpeedMetersPerSec = *p.SpeedMetersPerSec
	}
	if p.OverlapPercent != nil {
		cfg.OverlapPercent = *p.OverlapPercent
	}
	if p.GridDirectionDegrees != nil {
		cfg.GridDirectionDegrees = *p.GridDirectionDegrees
	}
	if p.TravelAxis != nil {
		cfg.TravelAxis = *p.TravelAxis
	}
	if p.CapturePhotos != nil {
		cfg.CapturePhotos = *p.CapturePhotos
	}
	if p.DroneModel != nil {
		cfg.DroneModel = *p.DroneModel
	}
	if err := cfg.Validate(); err != nil {
		return s, fmt.Errorf("update config: %w", err)
	}
	s.Config = cfg
	return regenerate(s)
}

// ClearAll removes every zone and waypoint. The config is kept.
type ClearAll struct{}

func (ClearAll) apply(s State) (State, error) {
	s.Zones = nil
	s.Waypoints = nil
	s.Stats = mission.Stats{}
	return s, nil
}

// WaypointPatch holds the waypoint fields to change; nil fields are kept.
type WaypointPatch struct {
	Position *geometry.GeoPoint `json:"position,omitempty"`
	Altitude *float64           `json:"altitude,omitempty"`
	Action   *mission.Action    `json:"action,omitempty"`
}

// UpdateWaypoint edits the waypoint with the given id. Stats are left as is.
type UpdateWaypoint struct {
	ID    string
	Patch WaypointPatch
}

func (c UpdateWaypoint) apply(s State) (State, error) {
	i := slices.IndexFunc(s.Waypoints, func(wp mission.Waypoint) bool { return wp.ID == c.ID })
	if i < 0 {
		return s, fmt.Errorf("waypoint %q not found", c.ID)
	}
	wps := slices.Clone(s.Waypoints)
	if c.Patch.Position != nil {
		wps[i].Position = *c.Patch.Position
	}
	if c.Patch.Altitude != nil {
		wps[i].Altitude = *c.Patch.Altitude
	}
	if c.Patch.Action != nil {
		wps[i].Action = *c.Patch.Action
	}
	s.Waypoints = wps
	return s, nil
}

// RemoveWaypoint drops the waypoint with the given id. Remaining indices are
// not renumbered.
type RemoveWaypoint struct {
	ID string
}

func (c RemoveWaypoint) apply(s State) (State, error) {
	s.Waypoints = slices.DeleteFunc(slices.Clone(s.Waypoints), func(wp mission.Waypoint) bool {
		return wp.ID == c.ID
	})
	return s, nil
}

// SetImportedWaypoints replaces the waypoints with an imported sequence.
// Stats only carry the count since no outline is known.
type SetImportedWaypoints struct {
	Waypoints []mission.Waypoint
}

func (c SetImportedWaypoints) apply(s State) (State, error) {
	s.Waypoints = slices.Clone(c.Waypoints)
	s.Stats = mission.Stats{WaypointCount: len(c.Waypoints)}
	return s, nil
}
