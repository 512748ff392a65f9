package staging

import (
	"fmt"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// SplitIntoStages partitions wps into stages using DefaultModel with the
// given threshold.
func SplitIntoStages(wps []mission.Waypoint, cfg mission.FlightConfig, battery mission.BatteryProfile, thresholdPercent float64) ([]mission.Stage, error) {
	m := DefaultModel
	m.ThresholdPercent = thresholdPercent
	return m.SplitIntoStages(wps, cfg, battery)
}

// SplitIntoStages scans wps in order and closes the running stage as soon as
// its battery estimate exceeds the threshold, or at the last waypoint. The
// stages cover wps exactly: stage[i].EndIndex+1 == stage[i+1].StartIndex and
// the last stage ends at len(wps)-1. An empty sequence has no stages.
func (m Model) SplitIntoStages(wps []mission.Waypoint, cfg mission.FlightConfig, battery mission.BatteryProfile) ([]mission.Stage, error) {
	if err := battery.Validate(); err != nil {
		return nil, err
	}
	if !(m.ThresholdPercent > 0) {
		return nil, fmt.Errorf("stage threshold must be > 0, got %g", m.ThresholdPercent)
	}

	var stages []mission.Stage
	start := 0
	for i := range wps {
		count := i - start + 1
		pct := m.EstimateBatteryPercent(count, cfg, battery)
		if pct <= m.ThresholdPercent && i != len(wps)-1 {
			continue
		}
		n := len(stages)
		stages = append(stages, mission.Stage{
			ID:                     fmt.Sprintf("stage-%d", n),
			Name:                   fmt.Sprintf("Stage %d", n+1),
			StartIndex:             start,
			EndIndex:               i,
			EstimatedTimeSeconds:   float64(count) * m.StageSecondsPerWaypoint,
			BatteryRequiredPercent: pct,
		})
		debug.Verbose("stage %d closed at waypoint %d (%d waypoints, %.1f%%)", n, i, count, pct)
		start = i + 1
	}
	return stages, nil
}
