package geometry

import (
	"fmt"
	"math"

	"github.com/cjeanneret/FlyGo/internal/config"
)

// FOVCalculator computes field of view angles from the camera's lens and
// sensor configuration.
type FOVCalculator struct {
	cam *config.CameraConfig
}

// NewFOVCalculator creates a new FOV calculator.
// Returns an error if sensor information is not available
// (required for calculations).
func NewFOVCalculator(cam *config.CameraConfig) (*FOVCalculator, error) {
	if cam == nil || cam.Sensor == nil {
		return nil, fmt.Errorf("sensor configuration is required for FOV calculations")
	}
	if cam.FocalLengthMm <= 0 {
		return nil, fmt.Errorf("focal length must be > 0, got %g", cam.FocalLengthMm)
	}
	return &FOVCalculator{cam: cam}, nil
}

// HorizontalFOV calculates the horizontal field of view in degrees.
// Formula: FOV = 2 × arctan(sensor_width / (2 × focal_length))
func (f *FOVCalculator) HorizontalFOV() float64 {
	return fovDegrees(f.cam.Sensor.WidthMm, f.cam.FocalLengthMm)
}

// VerticalFOV calculates the vertical field of view in degrees.
// Formula: FOV = 2 × arctan(sensor_height / (2 × focal_length))
func (f *FOVCalculator) VerticalFOV() float64 {
	return fovDegrees(f.cam.Sensor.HeightMm, f.cam.FocalLengthMm)
}

// DiagonalFOV calculates the diagonal field of view in degrees, the figure
// drone makers usually quote.
func (f *FOVCalculator) DiagonalFOV() float64 {
	diag := math.Hypot(f.cam.Sensor.WidthMm, f.cam.Sensor.HeightMm)
	return fovDegrees(diag, f.cam.FocalLengthMm)
}

func fovDegrees(sizeMm, focalMm float64) float64 {
	return 2.0 * math.Atan(sizeMm/(2.0*focalMm)) * 180.0 / math.Pi
}

// CoverageFOV returns the camera FOV used by POI coverage estimates: the
// diagonal FOV when a sensor is configured, the configured fallback otherwise.
func CoverageFOV(cfg *config.Config) float64 {
	fov, err := NewFOVCalculator(&cfg.Camera)
	if err != nil {
		return cfg.Orbit.CameraFOVDeg
	}
	return fov.DiagonalFOV()
}
