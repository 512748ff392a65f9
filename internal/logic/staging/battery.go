// Package staging splits long missions into battery-sized stages and issues
// resume tokens bound to a plan fingerprint.
//
// The battery model is a coarse heuristic: flight time is a fixed figure per
// waypoint, not derived from distances, and one of two constant currents
// applies depending on cruise speed. Downstream consumers rely on these
// exact formulas.
package staging

import (
	"math"

	"github.com/cjeanneret/FlyGo/internal/mission"
)

// Model holds the constants of the battery heuristic.
type Model struct {
	ThresholdPercent        float64 // a stage is closed once it exceeds this
	MinutesPerWaypoint      float64 // dwell + transit estimate per waypoint
	CruiseSpeedThresholdMps float64 // above this speed, cruise current applies
	StageSecondsPerWaypoint float64 // stage time estimate per waypoint
}

// DefaultModel matches the figures the planner has always used.
var DefaultModel = Model{
	ThresholdPercent:        70,
	MinutesPerWaypoint:      2,
	CruiseSpeedThresholdMps: 5,
	StageSecondsPerWaypoint: 120,
}

// EstimateBatteryPercent returns the share of usable capacity needed to fly
// wps, clamped to 100. It uses DefaultModel.
func EstimateBatteryPercent(wps []mission.Waypoint, cfg mission.FlightConfig, battery mission.BatteryProfile) float64 {
	return DefaultModel.EstimateBatteryPercent(len(wps), cfg, battery)
}

// EstimateBatteryPercent returns the share of usable capacity needed to fly
// count waypoints, clamped to 100. A profile without usable capacity
// requires 100%.
func (m Model) EstimateBatteryPercent(count int, cfg mission.FlightConfig, battery mission.BatteryProfile) float64 {
	hours := float64(count) * m.MinutesPerWaypoint / 60.0
	current := battery.HoverCurrentAmps
	if cfg.SpeedMetersPerSec > m.CruiseSpeedThresholdMps {
		current = battery.CruiseCurrentAmps
	}
	usable := battery.UsableCapacityAh()
	if !(usable > 0) {
		return 100
	}
	return math.Min(100, current*hours/usable*100)
}
