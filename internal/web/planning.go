package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cespare/xxhash/v2"

	"github.com/cjeanneret/FlyGo/internal/logic/cinematic"
	"github.com/cjeanneret/FlyGo/internal/logic/geometry"
	"github.com/cjeanneret/FlyGo/internal/logic/grid"
	"github.com/cjeanneret/FlyGo/internal/logic/poi"
	"github.com/cjeanneret/FlyGo/internal/logic/staging"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// GridRequest is the body of POST /plan/grid.
type GridRequest struct {
	Areas  [][]geometry.GeoPoint `json:"areas"`
	Config mission.FlightConfig  `json:"config"`
}

// GridResult is the response of POST /plan/grid.
type GridResult struct {
	Waypoints []mission.Waypoint `json:"waypoints"`
	Stats     mission.Stats      `json:"stats"`
}

// planStatus maps planning errors to HTTP status codes.
func planStatus(err error) int {
	switch {
	case errors.Is(err, grid.ErrTooDense), errors.Is(err, cinematic.ErrTooManySamples),
		errors.Is(err, poi.ErrTooManyPoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// HandlePlanGrid handles POST /plan/grid. Identical requests are served from
// the plan cache; the X-Cache header reports HIT or MISS.
func (h *Handlers) HandlePlanGrid(w http.ResponseWriter, r *http.Request) {
	var req GridRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key, err := cacheKey(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if res, ok := h.cache.Get(key); ok {
		h.Metrics.ObserveCache(true)
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, res)
		return
	}
	h.Metrics.ObserveCache(false)

	wps, err := grid.GenerateAreas(req.Areas, req.Config)
	if err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	stats, err := grid.ComputeAreasStats(wps, req.Areas, req.Config)
	if err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	if wps == nil {
		wps = []mission.Waypoint{}
	}
	res := GridResult{Waypoints: wps, Stats: stats}
	h.cache.Add(key, res)
	h.Metrics.ObservePlan(len(wps), 0)

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, res)
}

func cacheKey(req GridRequest) (uint64, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// PathRequest is the body of POST /plan/path.
type PathRequest struct {
	Kind cinematic.Kind `json:"kind"`
	cinematic.Params
	ClimbMeters *float64 `json:"climb_m,omitempty"` // helix defaults to HelixHeightChangeMeters
}

// PathResult is the response of POST /plan/path.
type PathResult struct {
	Points    []geometry.GeoPoint `json:"points"`
	Waypoints []mission.Waypoint  `json:"waypoints"`
}

// HandlePlanPath handles POST /plan/path.
func (h *Handlers) HandlePlanPath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	points, err := cinematic.Generate(req.Kind, req.Params)
	if err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	if points == nil {
		points = []geometry.GeoPoint{}
	}

	climb := 0.0
	if req.Kind == cinematic.KindHelix {
		climb = cinematic.HelixHeightChangeMeters
	}
	if req.ClimbMeters != nil {
		climb = *req.ClimbMeters
	}
	alt := cinematic.ConstantAltitude(req.AltitudeMeters)
	if climb != 0 {
		alt = cinematic.LinearClimb(req.AltitudeMeters, climb)
	}
	writeJSON(w, http.StatusOK, PathResult{
		Points:    points,
		Waypoints: cinematic.Waypoints(points, alt, mission.ActionNone),
	})
}

// OrbitRequest is the body of POST /plan/orbit. Missing orbit parameters,
// bands and FOV fall back to the configured defaults.
type OrbitRequest struct {
	POI    mission.POI      `json:"poi"`
	Orbit  *poi.OrbitParams `json:"orbit,omitempty"`
	Bands  []float64        `json:"bands,omitempty"`
	FOVDeg *float64         `json:"fov_deg,omitempty"`
}

// OrbitResult is the response of POST /plan/orbit.
type OrbitResult struct {
	Rings     [][]geometry.GeoPoint `json:"rings"`
	Levels    []poi.Level           `json:"levels"`
	Waypoints []mission.Waypoint    `json:"waypoints"`
	Coverage  poi.Coverage          `json:"coverage"`
}

// HandlePlanOrbit handles POST /plan/orbit.
func (h *Handlers) HandlePlanOrbit(w http.ResponseWriter, r *http.Request) {
	var req OrbitRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params := h.FormDefaults.Orbit
	if req.Orbit != nil {
		params = *req.Orbit
	}
	bands := h.FormDefaults.Bands
	if len(req.Bands) > 0 {
		bands = req.Bands
	}
	fov := h.Coverage.DefaultFOVDegrees
	if req.FOVDeg != nil {
		fov = *req.FOVDeg
	}

	rings, err := poi.GenerateOrbitRings(req.POI, params)
	if err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	levels, err := poi.GenerateStackedLevels(req.POI, rings, bands)
	if err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	var flat []geometry.GeoPoint
	for _, ring := range rings {
		flat = append(flat, ring...)
	}
	wps := poi.Waypoints(levels, mission.ActionPhoto)
	if wps == nil {
		wps = []mission.Waypoint{}
	}
	writeJSON(w, http.StatusOK, OrbitResult{
		Rings:     rings,
		Levels:    levels,
		Waypoints: wps,
		Coverage:  h.Coverage.Score(req.POI, flat, fov),
	})
}

// StagesRequest is the body of POST /plan/stages.
type StagesRequest struct {
	Mission          mission.Mission         `json:"mission"`
	Battery          *mission.BatteryProfile `json:"battery,omitempty"`
	ThresholdPercent *float64                `json:"threshold_percent,omitempty"`
}

// StagesResult is the response of POST /plan/stages.
type StagesResult struct {
	Stages         []mission.Stage `json:"stages"`
	BatteryPercent float64         `json:"battery_percent"` // whole mission on one pack
}

// HandlePlanStages handles POST /plan/stages.
func (h *Handlers) HandlePlanStages(w http.ResponseWriter, r *http.Request) {
	var req StagesRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	battery := h.FormDefaults.Battery
	if req.Battery != nil {
		battery = *req.Battery
	}
	model := h.Model
	if req.ThresholdPercent != nil {
		model.ThresholdPercent = *req.ThresholdPercent
	}

	wps := req.Mission.Waypoints
	stages, err := model.SplitIntoStages(wps, req.Mission.Config, battery)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if stages == nil {
		stages = []mission.Stage{}
	}
	h.Metrics.ObservePlan(len(wps), len(stages))
	writeJSON(w, http.StatusOK, StagesResult{
		Stages:         stages,
		BatteryPercent: model.EstimateBatteryPercent(len(wps), req.Mission.Config, battery),
	})
}

// TokenRequest is the body of POST /resume/token.
type TokenRequest struct {
	Mission       mission.Mission `json:"mission"`
	WaypointIndex int             `json:"waypoint_index"`
	StageIndex    int             `json:"stage_index"`
}

// HandleResumeToken handles POST /resume/token.
func (h *Handlers) HandleResumeToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, staging.GenerateResumeToken(req.Mission, req.WaypointIndex, req.StageIndex))
}

// ResumeRequest is the body of POST /resume/validate and POST /resume.
type ResumeRequest struct {
	Mission mission.Mission     `json:"mission"`
	Token   mission.ResumeToken `json:"token"`
}

// HandleResumeValidate handles POST /resume/validate.
func (h *Handlers) HandleResumeValidate(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, staging.ValidateResumeToken(req.Token, req.Mission))
}

// HandleResume handles POST /resume. The token is validated first; a token
// that does not match the mission is rejected with 409.
func (h *Handlers) HandleResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v := staging.ValidateResumeToken(req.Token, req.Mission); !v.Valid {
		http.Error(w, v.Reason, http.StatusConflict)
		return
	}
	resumed, err := staging.ResumeMission(req.Mission, req.Token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resumed)
}
