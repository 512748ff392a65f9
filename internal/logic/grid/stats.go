package grid

import (
	"fmt"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// ComputeStats derives mission statistics from a waypoint sequence and the
// outline it was generated for. Outlines with fewer than three points give
// zero stats. A non-positive speed is rejected with mission.ErrInvalidSpeed.
func ComputeStats(wps []mission.Waypoint, outline []geometry.GeoPoint, cfg mission.FlightConfig) (mission.Stats, error) {
	if len(outline) < 3 {
		return mission.Stats{}, nil
	}
	return statsFor(wps, geometry.PolygonArea(geometry.CloseRing(outline)), cfg)
}

// ComputeAreasStats is ComputeStats for a multi-area mission. The area is the
// sum of the individual outline areas.
func ComputeAreasStats(wps []mission.Waypoint, areas [][]geometry.GeoPoint, cfg mission.FlightConfig) (mission.Stats, error) {
	valid := 0
	area := 0.0
	for _, outline := range areas {
		if len(outline) < 3 {
			continue
		}
		valid++
		area += geometry.PolygonArea(geometry.CloseRing(outline))
	}
	if valid == 0 {
		return mission.Stats{}, nil
	}
	return statsFor(wps, area, cfg)
}

func statsFor(wps []mission.Waypoint, area float64, cfg mission.FlightConfig) (mission.Stats, error) {
	if !(cfg.SpeedMetersPerSec > 0) {
		return mission.Stats{}, fmt.Errorf("%w: got %g", mission.ErrInvalidSpeed, cfg.SpeedMetersPerSec)
	}
	dist := geometry.PathLength(mission.Positions(wps))
	return mission.Stats{
		WaypointCount:        len(wps),
		AreaSquareMeters:     area,
		TotalDistanceMeters:  dist,
		EstimatedTimeSeconds: dist / cfg.SpeedMetersPerSec,
	}, nil
}
