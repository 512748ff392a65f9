package vault

import "github.com/cjeanneret/FlyGo/internal/mission"

// Diff is one field that differs between two mission versions.
type Diff struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// CompareMissions reports altitude, speed and waypoint count changes from a
// to b, in that order.
func CompareMissions(a, b mission.Mission) []Diff {
	var diffs []Diff
	if a.Config.AltitudeMeters != b.Config.AltitudeMeters {
		diffs = append(diffs, Diff{Field: "Altitude", OldValue: a.Config.AltitudeMeters, NewValue: b.Config.AltitudeMeters})
	}
	if a.Config.SpeedMetersPerSec != b.Config.SpeedMetersPerSec {
		diffs = append(diffs, Diff{Field: "Speed", OldValue: a.Config.SpeedMetersPerSec, NewValue: b.Config.SpeedMetersPerSec})
	}
	if len(a.Waypoints) != len(b.Waypoints) {
		diffs = append(diffs, Diff{Field: "Waypoint Count", OldValue: len(a.Waypoints), NewValue: len(b.Waypoints)})
	}
	return diffs
}
