package plan

import (
	"github.com/cjeanneret/FlyGo/internal/config"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/poi"
	"github.com/cjeanneret/FlyGo/internal/logic/staging"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// FlightFromConfig returns the default flight parameters of cfg.
func FlightFromConfig(cfg *config.Config) mission.FlightConfig {
	return mission.FlightConfig{
		AltitudeMeters:       cfg.Flight.AltitudeM,
		SpeedMetersPerSec:    cfg.Flight.SpeedMps,
		OverlapPercent:       cfg.Flight.OverlapPercent,
		GridDirectionDegrees: cfg.Flight.DirectionDeg,
		TravelAxis:           mission.TravelAxis(cfg.Flight.TravelAxis),
		CapturePhotos:        cfg.CapturePhotos(),
		DroneModel:           cfg.Flight.DroneModel,
	}
}

// BatteryFromConfig returns the battery profile of cfg.
func BatteryFromConfig(cfg *config.Config) mission.BatteryProfile {
	return mission.BatteryProfile{
		CapacityMilliampHours: cfg.Battery.CapacityMah,
		Voltage:               cfg.Battery.Voltage,
		ReservePercent:        cfg.Battery.ReservePercent,
		HoverCurrentAmps:      cfg.Battery.HoverCurrentA,
		CruiseCurrentAmps:     cfg.Battery.CruiseCurrentA,
	}
}

// ModelFromConfig returns the battery heuristic constants of cfg.
func ModelFromConfig(cfg *config.Config) staging.Model {
	return staging.Model{
		ThresholdPercent:        cfg.Staging.ThresholdPercent,
		MinutesPerWaypoint:      cfg.Staging.MinutesPerWaypoint,
		CruiseSpeedThresholdMps: cfg.Staging.CruiseSpeedThresholdMps,
		StageSecondsPerWaypoint: cfg.Staging.StageSecondsPerWaypoint,
	}
}

// OrbitFromConfig returns the default orbit parameters of cfg.
func OrbitFromConfig(cfg *config.Config) poi.OrbitParams {
	return poi.OrbitParams{
		RingCount:           cfg.Orbit.RingCount,
		BaseRadiusMeters:    cfg.Orbit.BaseRadiusM,
		OverlapPercent:      cfg.Orbit.OverlapPercent,
		AltitudeMeters:      cfg.Orbit.AltitudeM,
		PhotoIntervalMeters: cfg.Orbit.PhotoIntervalM,
	}
}

// CoverageModelFromConfig returns the coverage heuristic of cfg. The default
// FOV comes from the camera sensor when one is configured.
func CoverageModelFromConfig(cfg *config.Config) poi.CoverageModel {
	return poi.CoverageModel{
		DefaultFOVDegrees:  geometry.CoverageFOV(cfg),
		PassScore:          cfg.Orbit.CoveragePassScore,
		BlindSpotOffsetDeg: cfg.Orbit.BlindSpotOffsetDeg,
	}
}
