package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/editor"
	"github.com/cjeanneret/FlyGo/internal/logic/poi"
	"github.com/cjeanneret/FlyGo/internal/logic/staging"
	"github.com/cjeanneret/FlyGo/internal/mission"
	"github.com/cjeanneret/FlyGo/internal/observability"
	"github.com/cjeanneret/FlyGo/internal/vault"
)

const (
	// MaxBodyBytes caps every JSON request body.
	MaxBodyBytes = 1 << 20
	// RunCooldown is the minimum delay between two accepted runs.
	RunCooldown = 5 * time.Second
	// DefaultCacheSize is the grid plan cache size used when none is given.
	DefaultCacheSize = 128
	cacheTTL         = 15 * time.Minute
)

// Overrides holds flight parameters that override config defaults for a run.
type Overrides struct {
	AltitudeM      float64 `json:"altitude_m"`
	SpeedMps       float64 `json:"speed_mps"`
	OverlapPercent float64 `json:"overlap_percent"`
	DirectionDeg   float64 `json:"direction_deg"`
}

// ValidateOverrides checks that every override is finite and in range.
func ValidateOverrides(o Overrides) error {
	if !finite(o.AltitudeM) || o.AltitudeM <= 0 || o.AltitudeM > 1000 {
		return fmt.Errorf("altitude_m must be between 0 and 1000")
	}
	if !finite(o.SpeedMps) || o.SpeedMps <= 0 || o.SpeedMps > 50 {
		return fmt.Errorf("speed_mps must be between 0 and 50")
	}
	if !finite(o.OverlapPercent) || o.OverlapPercent < 50 || o.OverlapPercent > 90 {
		return fmt.Errorf("overlap_percent must be between 50 and 90")
	}
	if !finite(o.DirectionDeg) || o.DirectionDeg < 0 || o.DirectionDeg >= 360 {
		return fmt.Errorf("direction_deg must be between 0 and 359")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Name      string         `json:"name"`
	Zones     []mission.Zone `json:"zones"`
	Overrides Overrides      `json:"overrides"`
}

// RunPlanFunc plans a mission for req.
// It is called from the POST /run handler in a goroutine.
type RunPlanFunc func(ctx context.Context, req RunRequest) (mission.Mission, error)

// FormConfig holds the planner defaults shown by the web form.
type FormConfig struct {
	Flight       mission.FlightConfig   `json:"flight"`
	Battery      mission.BatteryProfile `json:"battery"`
	Orbit        poi.OrbitParams        `json:"orbit"`
	Bands        []float64              `json:"bands"`
	CameraFOVDeg float64                `json:"camera_fov_deg"`
}

// MissionStore persists mission versions. *vault.Vault implements it.
type MissionStore interface {
	Save(m mission.Mission, note string) (vault.Version, error)
	Versions(id string) ([]vault.Version, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *StatusBroadcaster
	RunPlan      RunPlanFunc
	FormDefaults FormConfig
	Model        staging.Model
	Coverage     poi.CoverageModel
	Store        MissionStore                 // nil disables /missions
	Metrics      *observability.PlanCollector // nil disables /metrics

	cache     *expirable.LRU[uint64, GridResult]
	runningMu sync.Mutex
	running   bool
	lastStart time.Time
	now       func() time.Time
	staticFS  fs.FS

	editorMu sync.Mutex
	editor   *editor.History
}

// Option configures Handlers.
type Option func(*Handlers)

func WithStore(s MissionStore) Option {
	return func(h *Handlers) { h.Store = s }
}

func WithMetrics(c *observability.PlanCollector) Option {
	return func(h *Handlers) { h.Metrics = c }
}

// WithModels sets the staging and coverage heuristics.
func WithModels(m staging.Model, c poi.CoverageModel) Option {
	return func(h *Handlers) {
		h.Model = m
		h.Coverage = c
	}
}

// WithCacheSize sets the number of grid plans kept in memory.
func WithCacheSize(n int) Option {
	return func(h *Handlers) {
		if n <= 0 {
			n = DefaultCacheSize
		}
		h.cache = expirable.NewLRU[uint64, GridResult](n, nil, cacheTTL)
	}
}

// NewHandlers creates handlers with the given dependencies.
// If runPlan is nil, POST /run will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, runPlan RunPlanFunc, formDefaults FormConfig, staticFS fs.FS, opts ...Option) *Handlers {
	h := &Handlers{
		Broadcaster:  broadcaster,
		RunPlan:      runPlan,
		FormDefaults: formDefaults,
		Model:        staging.DefaultModel,
		Coverage:     poi.DefaultCoverageModel,
		cache:        expirable.NewLRU[uint64, GridResult](DefaultCacheSize, nil, cacheTTL),
		now:          time.Now,
		staticFS:     staticFS,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// decodeBody decodes a JSON body capped at MaxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
		}
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error(fmt.Errorf("write response: %w", err))
	}
}

// HandleConfig returns the form default values (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.FormDefaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleRun handles POST /run to start an asynchronous planning run.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ValidateOverrides(req.Overrides); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Zones) == 0 {
		http.Error(w, "at least one zone is required", http.StatusBadRequest)
		return
	}

	if h.RunPlan == nil {
		http.Error(w, "planner not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "planning run already in progress", http.StatusConflict)
		return
	}
	now := h.now()
	if !h.lastStart.IsZero() && now.Sub(h.lastStart) < RunCooldown {
		h.runningMu.Unlock()
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(RunCooldown.Seconds())))
		http.Error(w, "too many runs, retry later", http.StatusTooManyRequests)
		return
	}
	h.running = true
	h.lastStart = now
	h.runningMu.Unlock()
	h.Metrics.SetRunActive(true)

	// Run in goroutine; clear running when done
	go func() {
		defer func() {
			h.runningMu.Lock()
			h.running = false
			h.runningMu.Unlock()
			h.Metrics.SetRunActive(false)
		}()

		m, err := h.RunPlan(context.Background(), req)
		if err != nil {
			h.Broadcaster.Broadcast("error", "Planning failed: "+err.Error())
			debug.Error(fmt.Errorf("planning failed: %w", err))
			return
		}
		h.Metrics.ObservePlan(len(m.Waypoints), len(m.Stages))
		h.Broadcaster.Broadcast("info", fmt.Sprintf("Mission %s ready: %d waypoints, %d stages",
			m.ID, len(m.Waypoints), len(m.Stages)))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
