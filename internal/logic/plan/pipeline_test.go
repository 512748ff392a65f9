package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cjeanneret/FlyGo/internal/config"
	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/grid"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

var london = mission.Zone{
	ID:   "z1",
	Kind: "rectangle",
	Points: geometry.RectangleFromCorners(
		geometry.GeoPoint{Lat: 51.505, Lng: -0.09},
		geometry.GeoPoint{Lat: 51.515, Lng: -0.08},
	),
}

var docks = mission.Zone{
	ID:   "z2",
	Kind: "polygon",
	Points: []geometry.GeoPoint{
		{Lat: 51.50, Lng: -0.03},
		{Lat: 51.505, Lng: -0.03},
		{Lat: 51.505, Lng: -0.025},
	},
}

func request(zones ...mission.Zone) Request {
	return Request{
		Name:   "City survey",
		Zones:  zones,
		Flight: FlightFromConfig(config.Default()),
	}
}

func TestRun(t *testing.T) {
	var progress []Progress
	p := NewPipeline(WithProgress(func(pr Progress) { progress = append(progress, pr) }))
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	m, err := p.Run(context.Background(), request(london, docks))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ID == "" {
		t.Error("mission id should be generated")
	}
	if m.Name != "City survey" || !m.CreatedAt.Equal(fixed) {
		t.Errorf("mission = %q created %v", m.Name, m.CreatedAt)
	}

	want, err := grid.GenerateAreas(Areas([]mission.Zone{london, docks}), m.Config)
	if err != nil {
		t.Fatalf("GenerateAreas: %v", err)
	}
	if len(m.Waypoints) != len(want) || len(want) == 0 {
		t.Fatalf("got %d waypoints, want %d", len(m.Waypoints), len(want))
	}
	if m.Stats.WaypointCount != len(want) {
		t.Errorf("stats count = %d, want %d", m.Stats.WaypointCount, len(want))
	}
	wantArea := geometry.PolygonArea(geometry.CloseRing(london.Points)) + geometry.PolygonArea(geometry.CloseRing(docks.Points))
	if math.Abs(m.Stats.AreaSquareMeters-wantArea) > 1e-6 {
		t.Errorf("area = %v, want %v", m.Stats.AreaSquareMeters, wantArea)
	}

	if len(m.Stages) == 0 {
		t.Fatal("expected stages")
	}
	if last := m.Stages[len(m.Stages)-1]; last.EndIndex != len(m.Waypoints)-1 {
		t.Errorf("last stage ends at %d, want %d", last.EndIndex, len(m.Waypoints)-1)
	}

	if len(progress) != 2 || progress[1].Area != 1 || progress[1].Areas != 2 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestRun_LogsSweepLines(t *testing.T) {
	var buf bytes.Buffer
	prev := debug.Output()
	debug.SetOutput(&buf)
	debug.Init(debug.LevelInfo)
	t.Cleanup(func() {
		debug.Init(debug.LevelOff)
		debug.SetOutput(prev)
	})

	req := request(london, docks)
	m, err := NewPipeline().Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := 0
	for _, outline := range Areas(req.Zones) {
		pl, err := grid.CalculatePlan(outline, req.Flight)
		if err != nil || pl == nil {
			t.Fatalf("CalculatePlan = %v, %v", pl, err)
		}
		lines += pl.Lines
	}
	want := fmt.Sprintf("Grid: %d sweep lines -> %d waypoints", lines, len(m.Waypoints))
	if !strings.Contains(buf.String(), want) {
		t.Errorf("log should contain %q, got:\n%s", want, buf.String())
	}
}

func TestRun_KeepsRequestID(t *testing.T) {
	req := request(london)
	req.ID = "fixed-id"
	m, err := NewPipeline().Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", m.ID)
	}
}

func TestRun_NoZones(t *testing.T) {
	m, err := NewPipeline().Run(context.Background(), request())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.Waypoints) != 0 || len(m.Stages) != 0 || m.Stats != (mission.Stats{}) {
		t.Errorf("empty request produced %+v", m)
	}
}

func TestRun_InvalidFlight(t *testing.T) {
	req := request(london)
	req.Flight.SpeedMetersPerSec = 0
	if _, err := NewPipeline().Run(context.Background(), req); !errors.Is(err, mission.ErrInvalidSpeed) {
		t.Errorf("error = %v, want ErrInvalidSpeed", err)
	}
}

func TestRun_InvalidBattery(t *testing.T) {
	req := request(london)
	req.Battery = &mission.BatteryProfile{CapacityMilliampHours: 0}
	if _, err := NewPipeline().Run(context.Background(), req); !errors.Is(err, mission.ErrInvalidBattery) {
		t.Errorf("error = %v, want ErrInvalidBattery", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPipeline().Run(ctx, request(london)); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRun_CancelledBetweenAreas(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewPipeline(WithProgress(func(Progress) { cancel() }))
	if _, err := p.Run(ctx, request(london, docks)); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRun_CustomModel(t *testing.T) {
	cfg := config.Default()
	cfg.Staging.ThresholdPercent = 5
	m, err := NewPipeline(WithModel(ModelFromConfig(cfg))).Run(context.Background(), request(docks))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Every waypoint alone exceeds 5%, so each gets its own stage.
	if len(m.Stages) != len(m.Waypoints) {
		t.Errorf("got %d stages for %d waypoints", len(m.Stages), len(m.Waypoints))
	}
}

func TestConversions(t *testing.T) {
	cfg := config.Default()

	f := FlightFromConfig(cfg)
	if err := f.Validate(); err != nil {
		t.Errorf("default flight invalid: %v", err)
	}
	if f.AltitudeMeters != 80 || f.TravelAxis != mission.AxisEW || !f.CapturePhotos {
		t.Errorf("flight = %+v", f)
	}

	if b := BatteryFromConfig(cfg); b != mission.DefaultBattery {
		t.Errorf("battery = %+v, want %+v", b, mission.DefaultBattery)
	}

	m := ModelFromConfig(cfg)
	if m.ThresholdPercent != 70 || m.MinutesPerWaypoint != 2 || m.StageSecondsPerWaypoint != 120 {
		t.Errorf("model = %+v", m)
	}

	o := OrbitFromConfig(cfg)
	if o.RingCount != 3 || o.BaseRadiusMeters != 20 || o.PhotoIntervalMeters != 5 {
		t.Errorf("orbit = %+v", o)
	}

	c := CoverageModelFromConfig(cfg)
	if c.DefaultFOVDegrees != 84 || c.PassScore != 80 || c.BlindSpotOffsetDeg != 0.0001 {
		t.Errorf("coverage = %+v", c)
	}
}
