// Package plan runs the full survey planning flow: grid generation per
// area, mission statistics, then battery staging.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/grid"
	"github.com/cjeanneret/FlyGo/internal/logic/staging"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// Progress is reported after each area has been generated.
type Progress struct {
	Area      int // 0-based index of the finished area
	Areas     int // total number of areas
	Waypoints int // waypoints produced by this area
}

// Pipeline turns drawn zones into a staged mission.
type Pipeline struct {
	model    staging.Model
	battery  mission.BatteryProfile
	progress func(Progress)
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress registers a callback invoked after every area.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithModel overrides the staging heuristic constants.
func WithModel(m staging.Model) Option {
	return func(p *Pipeline) { p.model = m }
}

// WithBattery overrides the battery profile used when a request has none.
func WithBattery(b mission.BatteryProfile) Option {
	return func(p *Pipeline) { p.battery = b }
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		model:   staging.DefaultModel,
		battery: mission.DefaultBattery,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request defines one planning run.
type Request struct {
	ID      string                  `json:"id,omitempty"` // generated when empty
	Name    string                  `json:"name"`
	Zones   []mission.Zone          `json:"zones"`
	Flight  mission.FlightConfig    `json:"config"`
	Battery *mission.BatteryProfile `json:"battery,omitempty"`
}

// Areas returns the outlines of zones in order.
func Areas(zones []mission.Zone) [][]geometry.GeoPoint {
	areas := make([][]geometry.GeoPoint, len(zones))
	for i, z := range zones {
		areas[i] = z.Points
	}
	return areas
}

// Run plans req. It checks ctx between areas and returns ctx.Err() when
// cancelled.
func (p *Pipeline) Run(ctx context.Context, req Request) (mission.Mission, error) {
	debug.Section("Planning mission")
	if err := req.Flight.Validate(); err != nil {
		return mission.Mission{}, fmt.Errorf("flight config: %w", err)
	}
	battery := p.battery
	if req.Battery != nil {
		battery = *req.Battery
	}

	debug.Step(1, "Generating coverage grid")
	areas := Areas(req.Zones)
	var all []mission.Waypoint
	lines := 0
	for i, outline := range areas {
		select {
		case <-ctx.Done():
			return mission.Mission{}, ctx.Err()
		default:
		}

		pl, err := grid.CalculatePlan(outline, req.Flight)
		if err != nil {
			return mission.Mission{}, fmt.Errorf("area %d: %w", i, err)
		}
		var wps []mission.Waypoint
		if pl != nil {
			wps = pl.Waypoints(outline, req.Flight)
			lines += pl.Lines
		}
		all = append(all, wps...)
		debug.Area(i, len(areas), len(wps))
		if p.progress != nil {
			p.progress(Progress{Area: i, Areas: len(areas), Waypoints: len(wps)})
		}
	}
	all = grid.Renumber(all)
	debug.Grid(lines, len(all))

	debug.Step(2, "Computing statistics")
	stats, err := grid.ComputeAreasStats(all, areas, req.Flight)
	if err != nil {
		return mission.Mission{}, err
	}
	debug.PrintStruct("stats", stats)

	debug.Step(3, "Splitting into stages")
	stages, err := p.model.SplitIntoStages(all, req.Flight, battery)
	if err != nil {
		return mission.Mission{}, fmt.Errorf("staging: %w", err)
	}
	for i, s := range stages {
		debug.Stage(i, s.StartIndex, s.EndIndex, s.BatteryRequiredPercent)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	at := p.now().UTC()
	m := mission.Mission{
		ID:        id,
		Name:      req.Name,
		Zones:     req.Zones,
		Waypoints: all,
		Config:    req.Flight,
		Stats:     stats,
		Stages:    stages,
		CreatedAt: at,
		UpdatedAt: at,
	}
	debug.Info("Mission %s: %d waypoints, %d stages", m.ID, len(m.Waypoints), len(m.Stages))
	return m, nil
}
