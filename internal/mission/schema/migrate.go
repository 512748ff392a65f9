package schema

import "fmt"

// DefaultMapStyle is assigned to documents upgraded from schema 1.0.
const DefaultMapStyle = "carto-dark"

// MigrateWaypointV1ToV2 turns a photo action into a one-element action list
// with id action-<waypoint id>; any other action becomes an empty list.
func MigrateWaypointV1ToV2(wp WaypointV1) WaypointV2 {
	actions := []WaypointAction{}
	if wp.Action == "photo" {
		actions = append(actions, WaypointAction{ID: "action-" + wp.ID, Type: ActionPhoto})
	}
	return WaypointV2{
		ID:       wp.ID,
		Lat:      wp.Lat,
		Lng:      wp.Lng,
		Altitude: wp.Altitude,
		Index:    wp.Index,
		Actions:  actions,
	}
}

// DowngradeWaypointV2ToV1 keeps only whether the waypoint takes a photo.
func DowngradeWaypointV2ToV1(wp WaypointV2) WaypointV1 {
	action := "none"
	if HasPhoto(wp.Actions) {
		action = "photo"
	}
	return WaypointV1{
		ID:       wp.ID,
		Lat:      wp.Lat,
		Lng:      wp.Lng,
		Altitude: wp.Altitude,
		Index:    wp.Index,
		Action:   action,
	}
}

// MigrateV1ToV2 upgrades a schema 1.0 document. The waypoints are kept as a
// single grid segment.
func MigrateV1ToV2(m MissionV1) MissionV2 {
	wps := make([]WaypointV2, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		wps[i] = MigrateWaypointV1ToV2(wp)
	}
	segment := Segment{
		ID:        fmt.Sprintf("segment-%s", m.ID),
		Type:      "grid",
		Waypoints: append([]WaypointV1(nil), m.Waypoints...),
	}
	return MissionV2{
		ID:            m.ID,
		Name:          m.Name,
		SchemaVersion: V2,
		Segments:      []Segment{segment},
		Stages:        []Stage{},
		Waypoints:     wps,
		Config: ConfigV2{
			Config:        m.Config,
			SchemaVersion: V2,
			MapStyleID:    DefaultMapStyle,
		},
		Stats:     m.Stats,
		POIs:      []POI{},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// DowngradeV2ToV1 flattens a schema 2.0 document. Stages, POIs, segments
// and non-photo actions are dropped; schema 1.0 has no place for them.
func DowngradeV2ToV1(m MissionV2) MissionV1 {
	wps := make([]WaypointV1, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		wps[i] = DowngradeWaypointV2ToV1(wp)
	}
	return MissionV1{
		ID:        m.ID,
		Name:      m.Name,
		Zones:     []Zone{},
		Waypoints: wps,
		Config:    m.Config.Config,
		Stats:     m.Stats,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
