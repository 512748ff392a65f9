package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes caps the size of a configuration file.
const MaxConfigFileBytes = 1 << 20

// FlightConfig holds the default survey flight parameters.
type FlightConfig struct {
	AltitudeM      float64 `yaml:"altitude_m"`      // altitude above ground (m)
	SpeedMps       float64 `yaml:"speed_mps"`       // cruise speed (m/s)
	OverlapPercent float64 `yaml:"overlap_percent"` // image overlap, 50-90
	DirectionDeg   float64 `yaml:"direction_deg"`   // sweep line rotation, 0-359
	TravelAxis     string  `yaml:"travel_axis"`     // "EW" or "NS"
	CapturePhotos  *bool   `yaml:"capture_photos"`  // nil = true
	DroneModel     string  `yaml:"drone_model"`
}

// SensorConfig is optional: physical sensor size in mm.
type SensorConfig struct {
	WidthMm  float64 `yaml:"width_mm"`  // e.g., 9.6 for a 1/1.3" sensor
	HeightMm float64 `yaml:"height_mm"` // e.g., 7.2
}

// CameraConfig describes the drone camera. Only used to derive the field of
// view for POI coverage estimates.
type CameraConfig struct {
	Name          string        `yaml:"name"`
	FocalLengthMm float64       `yaml:"focal_length_mm"`
	Sensor        *SensorConfig `yaml:"sensor,omitempty"` // optional
}

// BatteryConfig describes the flight battery.
type BatteryConfig struct {
	CapacityMah    float64 `yaml:"capacity_mah"`
	Voltage        float64 `yaml:"voltage"`
	ReservePercent float64 `yaml:"reserve_percent"`
	HoverCurrentA  float64 `yaml:"hover_current_a"`
	CruiseCurrentA float64 `yaml:"cruise_current_a"`
}

// StagingConfig holds the constants of the coarse battery model.
type StagingConfig struct {
	ThresholdPercent        float64 `yaml:"threshold_percent"`          // close a stage above this
	MinutesPerWaypoint      float64 `yaml:"minutes_per_waypoint"`       // fixed dwell+transit estimate
	CruiseSpeedThresholdMps float64 `yaml:"cruise_speed_threshold_mps"` // above this, cruise current applies
	StageSecondsPerWaypoint float64 `yaml:"stage_seconds_per_waypoint"` // stage time estimate
}

// OrbitConfig holds POI orbit defaults and coverage heuristic constants.
type OrbitConfig struct {
	RingCount          int       `yaml:"ring_count"`
	BaseRadiusM        float64   `yaml:"base_radius_m"`
	OverlapPercent     float64   `yaml:"overlap_percent"`
	AltitudeM          float64   `yaml:"altitude_m"`
	PhotoIntervalM     float64   `yaml:"photo_interval_m"`
	Bands              []float64 `yaml:"bands"` // altitude bands for stacked levels (m)
	CameraFOVDeg       float64   `yaml:"camera_fov_deg"`
	CoveragePassScore  float64   `yaml:"coverage_pass_score"`
	BlindSpotOffsetDeg float64   `yaml:"blind_spot_offset_deg"`
}

// ServerConfig configures the web planning surface.
type ServerConfig struct {
	Port          int `yaml:"port"`
	PlanCacheSize int `yaml:"plan_cache_size"`
}

// VaultConfig configures the mission vault. An empty path disables it.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the debug logger.
type LogConfig struct {
	DebugLevel int    `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	File       string `yaml:"file"`        // optional rotating log file
	MaxSizeMb  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config aggregates all application configuration.
type Config struct {
	Flight  FlightConfig  `yaml:"flight"`
	Camera  CameraConfig  `yaml:"camera"`
	Battery BatteryConfig `yaml:"battery"`
	Staging StagingConfig `yaml:"staging"`
	Orbit   OrbitConfig   `yaml:"orbit"`
	Server  ServerConfig  `yaml:"server"`
	Vault   VaultConfig   `yaml:"vault"`
	Log     LogConfig     `yaml:"log"`
}

// ValidateConfigPath checks that path names a .yaml file living directly
// in a "configs" directory and does not climb out of it.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", MaxConfigFileBytes)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("config file %s is empty", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Flight.AltitudeM == 0 {
		c.Flight.AltitudeM = 80
	}
	if c.Flight.SpeedMps == 0 {
		c.Flight.SpeedMps = 8
	}
	if c.Flight.OverlapPercent == 0 {
		c.Flight.OverlapPercent = 70
	}
	if c.Flight.TravelAxis == "" {
		c.Flight.TravelAxis = "EW"
	}
	c.Flight.TravelAxis = strings.ToUpper(c.Flight.TravelAxis)
	if c.Flight.DroneModel == "" {
		c.Flight.DroneModel = "DJI Mini 4 Pro"
	}

	if c.Battery.CapacityMah == 0 {
		c.Battery.CapacityMah = 5000
	}
	if c.Battery.Voltage == 0 {
		c.Battery.Voltage = 11.1
	}
	if c.Battery.ReservePercent == 0 {
		c.Battery.ReservePercent = 20
	}
	if c.Battery.HoverCurrentA == 0 {
		c.Battery.HoverCurrentA = 15
	}
	if c.Battery.CruiseCurrentA == 0 {
		c.Battery.CruiseCurrentA = 10
	}

	if c.Staging.ThresholdPercent == 0 {
		c.Staging.ThresholdPercent = 70
	}
	if c.Staging.MinutesPerWaypoint == 0 {
		c.Staging.MinutesPerWaypoint = 2
	}
	if c.Staging.CruiseSpeedThresholdMps == 0 {
		c.Staging.CruiseSpeedThresholdMps = 5
	}
	if c.Staging.StageSecondsPerWaypoint == 0 {
		c.Staging.StageSecondsPerWaypoint = 120
	}

	if c.Orbit.RingCount == 0 {
		c.Orbit.RingCount = 3
	}
	if c.Orbit.BaseRadiusM == 0 {
		c.Orbit.BaseRadiusM = 20
	}
	if c.Orbit.OverlapPercent == 0 {
		c.Orbit.OverlapPercent = 70
	}
	if c.Orbit.AltitudeM == 0 {
		c.Orbit.AltitudeM = 40
	}
	if c.Orbit.PhotoIntervalM == 0 {
		c.Orbit.PhotoIntervalM = 5
	}
	if len(c.Orbit.Bands) == 0 {
		c.Orbit.Bands = []float64{30, 50, 70}
	}
	if c.Orbit.CameraFOVDeg == 0 {
		c.Orbit.CameraFOVDeg = 84
	}
	if c.Orbit.CoveragePassScore == 0 {
		c.Orbit.CoveragePassScore = 80
	}
	if c.Orbit.BlindSpotOffsetDeg == 0 {
		c.Orbit.BlindSpotOffsetDeg = 0.0001
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PlanCacheSize == 0 {
		c.Server.PlanCacheSize = 128
	}

	if c.Log.MaxSizeMb == 0 {
		c.Log.MaxSizeMb = 32
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 1
	}
}

// Validate checks the ranges the planner depends on.
func (c *Config) Validate() error {
	if !finite(c.Flight.AltitudeM) || c.Flight.AltitudeM <= 0 || c.Flight.AltitudeM > 1000 {
		return fmt.Errorf("flight.altitude_m must be between 0 and 1000, got %g", c.Flight.AltitudeM)
	}
	if !finite(c.Flight.SpeedMps) || c.Flight.SpeedMps <= 0 || c.Flight.SpeedMps > 50 {
		return fmt.Errorf("flight.speed_mps must be between 0 and 50, got %g", c.Flight.SpeedMps)
	}
	if !finite(c.Flight.OverlapPercent) || c.Flight.OverlapPercent < 50 || c.Flight.OverlapPercent > 90 {
		return fmt.Errorf("flight.overlap_percent must be between 50 and 90, got %.2f", c.Flight.OverlapPercent)
	}
	if !finite(c.Flight.DirectionDeg) || c.Flight.DirectionDeg < 0 || c.Flight.DirectionDeg >= 360 {
		return fmt.Errorf("flight.direction_deg must be between 0 and 359, got %g", c.Flight.DirectionDeg)
	}
	if c.Flight.TravelAxis != "EW" && c.Flight.TravelAxis != "NS" {
		return fmt.Errorf("flight.travel_axis must be EW or NS, got %q", c.Flight.TravelAxis)
	}

	if c.Camera.Sensor != nil {
		if c.Camera.FocalLengthMm <= 0 {
			return fmt.Errorf("camera.focal_length_mm must be > 0 when camera.sensor is set")
		}
		if c.Camera.Sensor.WidthMm <= 0 || c.Camera.Sensor.HeightMm <= 0 {
			return fmt.Errorf("camera.sensor width_mm and height_mm must be > 0")
		}
	}

	if c.Battery.CapacityMah <= 0 {
		return fmt.Errorf("battery.capacity_mah must be > 0, got %g", c.Battery.CapacityMah)
	}
	if c.Battery.ReservePercent < 0 || c.Battery.ReservePercent >= 100 {
		return fmt.Errorf("battery.reserve_percent must be between 0 and 99, got %g", c.Battery.ReservePercent)
	}
	if c.Battery.HoverCurrentA < 0 || c.Battery.CruiseCurrentA < 0 {
		return fmt.Errorf("battery currents must be >= 0")
	}

	if c.Staging.ThresholdPercent <= 0 || c.Staging.ThresholdPercent > 100 {
		return fmt.Errorf("staging.threshold_percent must be between 0 and 100, got %g", c.Staging.ThresholdPercent)
	}
	if c.Staging.MinutesPerWaypoint < 0 || c.Staging.StageSecondsPerWaypoint < 0 {
		return fmt.Errorf("staging per-waypoint estimates must be >= 0")
	}

	if c.Orbit.RingCount < 1 || c.Orbit.RingCount > 20 {
		return fmt.Errorf("orbit.ring_count must be between 1 and 20, got %d", c.Orbit.RingCount)
	}
	if c.Orbit.BaseRadiusM <= 0 || c.Orbit.PhotoIntervalM <= 0 {
		return fmt.Errorf("orbit.base_radius_m and orbit.photo_interval_m must be > 0")
	}
	if c.Orbit.CameraFOVDeg <= 0 || c.Orbit.CameraFOVDeg >= 180 {
		return fmt.Errorf("orbit.camera_fov_deg must be between 0 and 180, got %g", c.Orbit.CameraFOVDeg)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.PlanCacheSize < 1 {
		return fmt.Errorf("server.plan_cache_size must be >= 1, got %d", c.Server.PlanCacheSize)
	}

	if c.Log.DebugLevel < 0 || c.Log.DebugLevel > 4 {
		return fmt.Errorf("log.debug_level must be between 0 and 4, got %d", c.Log.DebugLevel)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CapturePhotos reports whether grid waypoints carry a photo action.
func (c *Config) CapturePhotos() bool {
	return c.Flight.CapturePhotos == nil || *c.Flight.CapturePhotos
}

// Addr returns the listen address for the web server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
