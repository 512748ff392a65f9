package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/FlyGo/internal/config"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/plan"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

func zone(id string, lat, lng float64) mission.Zone {
	return mission.Zone{
		ID:   id,
		Kind: "rectangle",
		Points: geometry.RectangleFromCorners(
			geometry.GeoPoint{Lat: lat, Lng: lng},
			geometry.GeoPoint{Lat: lat + 0.003, Lng: lng + 0.003},
		),
	}
}

func newState() State {
	return NewState(plan.FlightFromConfig(config.Default()))
}

func mustApply(t *testing.T, s State, cmd Command) State {
	t.Helper()
	next, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("Apply(%T): %v", cmd, err)
	}
	return next
}

func ptr[T any](v T) *T { return &v }

func TestNewState(t *testing.T) {
	a, b := newState(), newState()
	if a.MissionID == "" || a.MissionID == b.MissionID {
		t.Errorf("mission ids %q and %q should be unique", a.MissionID, b.MissionID)
	}
}

func TestAddZone(t *testing.T) {
	s0 := newState()
	s1 := mustApply(t, s0, AddZone{Zone: zone("a", 51.5, -0.1)})
	if len(s1.Zones) != 1 || len(s1.Waypoints) == 0 {
		t.Fatalf("got %d zones, %d waypoints", len(s1.Zones), len(s1.Waypoints))
	}
	if s1.Stats.WaypointCount != len(s1.Waypoints) || s1.Stats.AreaSquareMeters <= 0 {
		t.Errorf("stats = %+v", s1.Stats)
	}
	if len(s0.Zones) != 0 || len(s0.Waypoints) != 0 {
		t.Error("Apply mutated its input")
	}

	s2 := mustApply(t, s1, AddZone{Zone: zone("b", 51.6, -0.1)})
	if len(s2.Waypoints) <= len(s1.Waypoints) {
		t.Errorf("second zone added no waypoints: %d -> %d", len(s1.Waypoints), len(s2.Waypoints))
	}
	for i, wp := range s2.Waypoints {
		if wp.Index != i {
			t.Fatalf("waypoint %d has index %d", i, wp.Index)
		}
	}
	if s2.Stats.AreaSquareMeters <= s1.Stats.AreaSquareMeters {
		t.Errorf("area did not grow: %v -> %v", s1.Stats.AreaSquareMeters, s2.Stats.AreaSquareMeters)
	}
}

func TestRemoveZone(t *testing.T) {
	s := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	one := len(s.Waypoints)
	s = mustApply(t, s, AddZone{Zone: zone("b", 51.6, -0.1)})
	s = mustApply(t, s, RemoveZone{ID: "b"})
	if len(s.Zones) != 1 || s.Zones[0].ID != "a" || len(s.Waypoints) != one {
		t.Errorf("after remove: %d zones, %d waypoints (want 1, %d)", len(s.Zones), len(s.Waypoints), one)
	}

	s = mustApply(t, s, RemoveZone{ID: "a"})
	if len(s.Waypoints) != 0 || s.Stats != (mission.Stats{}) {
		t.Errorf("empty zone list left %d waypoints, stats %+v", len(s.Waypoints), s.Stats)
	}
}

func TestUpdateConfig(t *testing.T) {
	s := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	before := len(s.Waypoints)

	s = mustApply(t, s, UpdateConfig{Patch: ConfigPatch{AltitudeMeters: ptr(40.0)}})
	if s.Config.AltitudeMeters != 40 || s.Config.SpeedMetersPerSec != 8 {
		t.Errorf("config = %+v", s.Config)
	}
	if len(s.Waypoints) <= before {
		t.Errorf("lower altitude should densify the grid: %d -> %d", before, len(s.Waypoints))
	}
	for _, wp := range s.Waypoints {
		if wp.Altitude != 40 {
			t.Fatalf("waypoint altitude = %v, want 40", wp.Altitude)
		}
	}

	s = mustApply(t, s, UpdateConfig{Patch: ConfigPatch{CapturePhotos: ptr(false)}})
	if s.Waypoints[0].Action != mission.ActionNone {
		t.Errorf("action = %q, want none", s.Waypoints[0].Action)
	}
}

func TestUpdateConfig_Invalid(t *testing.T) {
	s := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	got, err := Apply(s, UpdateConfig{Patch: ConfigPatch{SpeedMetersPerSec: ptr(0.0)}})
	if !errors.Is(err, mission.ErrInvalidSpeed) {
		t.Fatalf("error = %v, want ErrInvalidSpeed", err)
	}
	if got.Config.SpeedMetersPerSec != 8 {
		t.Errorf("failed update changed speed to %v", got.Config.SpeedMetersPerSec)
	}
}

func TestClearAll(t *testing.T) {
	s := mustApply(t, newState(), UpdateConfig{Patch: ConfigPatch{AltitudeMeters: ptr(60.0)}})
	s = mustApply(t, s, AddZone{Zone: zone("a", 51.5, -0.1)})
	s = mustApply(t, s, ClearAll{})
	if len(s.Zones) != 0 || len(s.Waypoints) != 0 || s.Stats != (mission.Stats{}) {
		t.Errorf("ClearAll left %+v", s)
	}
	if s.Config.AltitudeMeters != 60 {
		t.Errorf("ClearAll reset config: %+v", s.Config)
	}
}

func TestUpdateWaypoint(t *testing.T) {
	s0 := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	id := s0.Waypoints[1].ID
	s1 := mustApply(t, s0, UpdateWaypoint{ID: id, Patch: WaypointPatch{Altitude: ptr(120.0), Action: ptr(mission.ActionNone)}})

	if s1.Waypoints[1].Altitude != 120 || s1.Waypoints[1].Action != mission.ActionNone {
		t.Errorf("waypoint = %+v", s1.Waypoints[1])
	}
	if s1.Waypoints[1].Position != s0.Waypoints[1].Position {
		t.Error("position should be kept when not patched")
	}
	if s0.Waypoints[1].Altitude == 120 {
		t.Error("Apply mutated its input")
	}

	if _, err := Apply(s1, UpdateWaypoint{ID: "nope"}); err == nil {
		t.Error("expected error for unknown waypoint")
	}
}

func TestRemoveWaypoint(t *testing.T) {
	s0 := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	s1 := mustApply(t, s0, RemoveWaypoint{ID: s0.Waypoints[0].ID})
	if len(s1.Waypoints) != len(s0.Waypoints)-1 {
		t.Fatalf("got %d waypoints, want %d", len(s1.Waypoints), len(s0.Waypoints)-1)
	}
	if s1.Waypoints[0].ID != s0.Waypoints[1].ID {
		t.Errorf("first waypoint = %s, want %s", s1.Waypoints[0].ID, s0.Waypoints[1].ID)
	}
}

func TestSetImportedWaypoints(t *testing.T) {
	wps := []mission.Waypoint{
		{ID: "x", Position: geometry.GeoPoint{Lat: 1, Lng: 1}, Altitude: 50},
		{ID: "y", Position: geometry.GeoPoint{Lat: 1.001, Lng: 1}, Altitude: 50, Index: 1},
	}
	s := mustApply(t, newState(), SetImportedWaypoints{Waypoints: wps})
	want := mission.Stats{WaypointCount: 2}
	if s.Stats != want {
		t.Errorf("stats = %+v, want %+v", s.Stats, want)
	}
	wps[0].ID = "changed"
	if s.Waypoints[0].ID != "x" {
		t.Error("state shares the imported slice")
	}
}

func TestStateMission(t *testing.T) {
	s := mustApply(t, newState(), AddZone{Zone: zone("a", 51.5, -0.1)})
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	m := s.Mission("Field", at)
	if m.ID != s.MissionID || m.Name != "Field" || len(m.Waypoints) != len(s.Waypoints) || !m.CreatedAt.Equal(at) {
		t.Errorf("mission = %+v", m)
	}
}
