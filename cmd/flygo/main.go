package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/FlyGo/internal/config"
	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/plan"
	"github.com/cjeanneret/FlyGo/internal/mission"
	"github.com/cjeanneret/FlyGo/internal/mission/schema"
	"github.com/cjeanneret/FlyGo/internal/observability"
	"github.com/cjeanneret/FlyGo/internal/vault"
	"github.com/cjeanneret/FlyGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{}
	flag.Var(webPort, "web", "start web server; -web= for the configured port, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	areaPath := flag.String("area", "", "outline file: JSON point list, list of point lists, or mission document")
	outPath := flag.String("out", "", "write the planned mission document here instead of stdout")
	name := flag.String("name", "Survey", "mission name")
	schemaVersion := flag.String("schema", string(schema.V1), "output schema version (1.0 or 2.0)")
	altitude := flag.Float64("altitude", 0, "override flight altitude in meters (0-1000)")
	speed := flag.Float64("speed", 0, "override flight speed in m/s (0-50)")
	overlap := flag.Float64("overlap", 0, "override image overlap in percent (50-90)")
	direction := flag.Float64("direction", 0, "override grid direction in degrees (0-359)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	overrides := web.Overrides{
		AltitudeM:      *altitude,
		SpeedMps:       *speed,
		OverlapPercent: *overlap,
		DirectionDeg:   *direction,
	}
	if err := validateCLIOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)

	// Initialize debug system
	debug.Init(cfg.Log.DebugLevel)
	if cfg.Log.File != "" {
		closer, err := debug.AttachFile(debug.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMb:  cfg.Log.MaxSizeMb,
			MaxBackups: cfg.Log.MaxBackups,
		})
		if err != nil {
			log.Fatalf("open log file failed: %v", err)
		}
		defer closer.Close()
	}
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Log.DebugLevel)
	debug.PrintStruct("Flight config", cfg.Flight)

	// Open mission vault
	var store *vault.Vault
	if cfg.Vault.Path != "" {
		debug.Step(1, "Opening mission vault")
		store, err = vault.Open(cfg.Vault.Path)
		if err != nil {
			log.Fatalf("open vault failed: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("closing vault failed: %v", err)
			}
		}()
		debug.Value("Vault path", cfg.Vault.Path)
	}

	if webPort.enabled {
		webAddr := webPort.addr(cfg)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(debug.Output(), web.BroadcastWriter(broadcaster)))

		metrics, err := observability.NewPlanCollector(nil)
		if err != nil {
			log.Fatalf("register metrics failed: %v", err)
		}

		// Build runPlan closure over the base config and the vault
		runPlan := func(ctx context.Context, req web.RunRequest) (mission.Mission, error) {
			runCfg := applyOverridesToCopy(cfg, req.Overrides)
			return planMission(ctx, runCfg, req.Name, req.Zones, store, func(p plan.Progress) {
				broadcaster.BroadcastProgress(p.Area, p.Areas, p.Waypoints)
			})
		}

		opts := []web.Option{
			web.WithMetrics(metrics),
			web.WithModels(plan.ModelFromConfig(cfg), plan.CoverageModelFromConfig(cfg)),
			web.WithCacheSize(cfg.Server.PlanCacheSize),
		}
		if store != nil {
			opts = append(opts, web.WithStore(store))
		}
		srv := web.NewServer(webAddr, broadcaster, runPlan, formDefaults(cfg), opts...)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	if *areaPath == "" {
		log.Fatalf("nothing to do: pass -area <file> or -web")
	}
	zones, err := loadZonesFile(*areaPath)
	if err != nil {
		log.Fatalf("load area failed: %v", err)
	}
	m, err := planMission(ctx, cfg, *name, zones, store, nil)
	if err != nil {
		log.Fatalf("planning failed: %v", err)
	}

	debug.Summary("Mission Summary")
	debug.Value("Mission id", m.ID)
	debug.Value("Waypoints", m.Stats.WaypointCount)
	debug.Value("Area (m2)", fmt.Sprintf("%.0f", m.Stats.AreaSquareMeters))
	debug.Value("Distance (m)", fmt.Sprintf("%.0f", m.Stats.TotalDistanceMeters))
	debug.Value("Flight time (s)", fmt.Sprintf("%.0f", m.Stats.EstimatedTimeSeconds))
	debug.Value("Stages", len(m.Stages))

	if err := writeMission(*outPath, m, schema.Version(*schemaVersion)); err != nil {
		log.Fatalf("write mission failed: %v", err)
	}
}

// planMission runs the planning pipeline for zones with cfg, then stores the
// result when a vault is open.
func planMission(
	ctx context.Context,
	cfg *config.Config,
	name string,
	zones []mission.Zone,
	store *vault.Vault,
	progress func(plan.Progress),
) (mission.Mission, error) {
	opts := []plan.Option{
		plan.WithModel(plan.ModelFromConfig(cfg)),
		plan.WithBattery(plan.BatteryFromConfig(cfg)),
	}
	if progress != nil {
		opts = append(opts, plan.WithProgress(progress))
	}
	m, err := plan.NewPipeline(opts...).Run(ctx, plan.Request{
		Name:   name,
		Zones:  zones,
		Flight: plan.FlightFromConfig(cfg),
	})
	if err != nil {
		return mission.Mission{}, err
	}
	if store != nil {
		v, err := store.Save(m, "planned")
		if err != nil {
			return mission.Mission{}, fmt.Errorf("save mission: %w", err)
		}
		debug.Live("Saved mission %s version %d", m.ID, v.Version)
	}
	return m, nil
}

// formDefaults returns the planner defaults shown by the web form.
func formDefaults(cfg *config.Config) web.FormConfig {
	return web.FormConfig{
		Flight:       plan.FlightFromConfig(cfg),
		Battery:      plan.BatteryFromConfig(cfg),
		Orbit:        plan.OrbitFromConfig(cfg),
		Bands:        cfg.Orbit.Bands,
		CameraFOVDeg: geometry.CoverageFOV(cfg),
	}
}

// loadZonesFile reads outlines from path, see loadZones.
func loadZonesFile(path string) ([]mission.Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadZones(f)
}

// loadZones accepts a single outline ([{lat,lng},...]), a list of outlines
// ([[{lat,lng},...],...]) or a mission document with zones.
func loadZones(r io.Reader) ([]mission.Zone, error) {
	data, err := io.ReadAll(io.LimitReader(r, schema.MaxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > schema.MaxDocumentBytes {
		return nil, fmt.Errorf("area file exceeds %d bytes", schema.MaxDocumentBytes)
	}

	var areas [][]geometry.GeoPoint
	if err := json.Unmarshal(data, &areas); err == nil {
		return zonesFromAreas(areas)
	}
	var outline []geometry.GeoPoint
	if err := json.Unmarshal(data, &outline); err == nil {
		return zonesFromAreas([][]geometry.GeoPoint{outline})
	}

	doc, err := schema.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	zones := doc.ToMission().Zones
	if len(zones) == 0 {
		return nil, fmt.Errorf("mission document has no zones")
	}
	return zones, nil
}

func zonesFromAreas(areas [][]geometry.GeoPoint) ([]mission.Zone, error) {
	if len(areas) == 0 {
		return nil, fmt.Errorf("area file has no outline")
	}
	zones := make([]mission.Zone, len(areas))
	for i, pts := range areas {
		zones[i] = mission.Zone{ID: fmt.Sprintf("zone-%d", i), Points: pts, Kind: "polygon"}
	}
	return zones, nil
}

// writeMission encodes m as a mission document to path, or stdout when
// path is empty.
func writeMission(path string, m mission.Mission, version schema.Version) error {
	doc := schema.FromMission(m)
	switch version {
	case schema.V1:
	case schema.V2:
		v2 := doc.AsV2()
		doc = schema.Document{Version: schema.V2, V2: &v2}
	default:
		return fmt.Errorf("%w %q", schema.ErrUnknownVersion, version)
	}

	if path == "" {
		return schema.Encode(os.Stdout, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := schema.Encode(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(o web.Overrides) error {
	check := func(name string, v, lo, hi float64, loOpen bool) error {
		if v == 0 {
			return nil
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v > hi || v < lo || (loOpen && v == lo) {
			return fmt.Errorf("%s must be between %g and %g, got %g", name, lo, hi, v)
		}
		return nil
	}
	if err := check("altitude", o.AltitudeM, 0, 1000, true); err != nil {
		return err
	}
	if err := check("speed", o.SpeedMps, 0, 50, true); err != nil {
		return err
	}
	if err := check("overlap", o.OverlapPercent, 50, 90, false); err != nil {
		return err
	}
	if o.DirectionDeg != 0 && !(o.DirectionDeg > 0 && o.DirectionDeg < 360) {
		return fmt.Errorf("direction must be between 0 and 359, got %g", o.DirectionDeg)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, overrides web.Overrides) {
	if overrides.AltitudeM > 0 {
		cfg.Flight.AltitudeM = overrides.AltitudeM
	}
	if overrides.SpeedMps > 0 {
		cfg.Flight.SpeedMps = overrides.SpeedMps
	}
	if overrides.OverlapPercent > 0 {
		cfg.Flight.OverlapPercent = overrides.OverlapPercent
	}
	if overrides.DirectionDeg > 0 {
		cfg.Flight.DirectionDeg = overrides.DirectionDeg
	}
}

// applyOverridesToCopy returns a new config with overrides applied.
// Zero values in overrides mean "use base config".
func applyOverridesToCopy(baseCfg *config.Config, overrides web.Overrides) *config.Config {
	cfg := *baseCfg
	applyOverrides(&cfg, overrides)
	return &cfg
}

// webPortFlag implements flag.Value for -web: unset = disabled, -web= uses
// the configured port, -web 8980 → 8980.
type webPortFlag struct {
	val     int
	enabled bool
}

func (w *webPortFlag) String() string {
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.enabled = true
		w.val = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	w.enabled = true
	return nil
}

// addr returns the listen address, falling back to the configured port.
func (w *webPortFlag) addr(cfg *config.Config) string {
	if w.val == 0 {
		return cfg.Addr()
	}
	return fmt.Sprintf(":%d", w.val)
}
