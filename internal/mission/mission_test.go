package mission

import (
	"errors"
	"math"
	"testing"

	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
)

func validFlight() FlightConfig {
	return FlightConfig{
		AltitudeMeters:    80,
		SpeedMetersPerSec: 8,
		OverlapPercent:    70,
		TravelAxis:        AxisEW,
		CapturePhotos:     true,
	}
}

func TestFlightConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*FlightConfig)
		wantErr error
		wantOK  bool
	}{
		{"valid", func(*FlightConfig) {}, nil, true},
		{"ns_axis", func(c *FlightConfig) { c.TravelAxis = AxisNS }, nil, true},
		{"direction_359", func(c *FlightConfig) { c.GridDirectionDegrees = 359 }, nil, true},
		{"zero_speed", func(c *FlightConfig) { c.SpeedMetersPerSec = 0 }, ErrInvalidSpeed, false},
		{"negative_speed", func(c *FlightConfig) { c.SpeedMetersPerSec = -3 }, ErrInvalidSpeed, false},
		{"nan_speed", func(c *FlightConfig) { c.SpeedMetersPerSec = math.NaN() }, ErrInvalidSpeed, false},
		{"zero_altitude", func(c *FlightConfig) { c.AltitudeMeters = 0 }, ErrInvalidAltitude, false},
		{"overlap_low", func(c *FlightConfig) { c.OverlapPercent = 49 }, ErrInvalidOverlap, false},
		{"overlap_high", func(c *FlightConfig) { c.OverlapPercent = 91 }, ErrInvalidOverlap, false},
		{"direction_360", func(c *FlightConfig) { c.GridDirectionDegrees = 360 }, nil, false},
		{"bad_axis", func(c *FlightConfig) { c.TravelAxis = "UP" }, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validFlight()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tc.wantErr)
			}
		})
	}
}

func TestFlightConfig_Action(t *testing.T) {
	cfg := validFlight()
	if cfg.Action() != ActionPhoto {
		t.Errorf("Action() = %q, want %q", cfg.Action(), ActionPhoto)
	}
	cfg.CapturePhotos = false
	if cfg.Action() != ActionNone {
		t.Errorf("Action() = %q, want %q", cfg.Action(), ActionNone)
	}
}

func TestReindex(t *testing.T) {
	in := []Waypoint{{ID: "a", Index: 7}, {ID: "b", Index: 3}, {ID: "c", Index: 9}}
	out := Reindex(in)
	for i, wp := range out {
		if wp.Index != i {
			t.Errorf("out[%d].Index = %d, want %d", i, wp.Index, i)
		}
	}
	if in[0].Index != 7 {
		t.Error("Reindex mutated its input")
	}
	if out[1].ID != "b" {
		t.Errorf("Reindex changed order: %+v", out)
	}
}

func TestPositions(t *testing.T) {
	wps := []Waypoint{
		{Position: geometry.GeoPoint{Lat: 1, Lng: 2}},
		{Position: geometry.GeoPoint{Lat: 3, Lng: 4}},
	}
	got := Positions(wps)
	if len(got) != 2 || got[1] != (geometry.GeoPoint{Lat: 3, Lng: 4}) {
		t.Errorf("Positions = %v", got)
	}
}

func TestBatteryProfile(t *testing.T) {
	if err := DefaultBattery.Validate(); err != nil {
		t.Fatalf("default battery invalid: %v", err)
	}
	if got := DefaultBattery.UsableCapacityAh(); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("UsableCapacityAh = %v, want 4", got)
	}

	bad := []BatteryProfile{
		{CapacityMilliampHours: 0, ReservePercent: 20},
		{CapacityMilliampHours: 5000, ReservePercent: 100},
		{CapacityMilliampHours: 5000, ReservePercent: -1},
		{CapacityMilliampHours: 5000, HoverCurrentAmps: -1},
	}
	for i, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrInvalidBattery) {
			t.Errorf("profile %d: error %v, want ErrInvalidBattery", i, err)
		}
	}
}

func TestStage_Len(t *testing.T) {
	s := Stage{StartIndex: 4, EndIndex: 9}
	if s.Len() != 6 {
		t.Errorf("Len() = %d, want 6", s.Len())
	}
}
