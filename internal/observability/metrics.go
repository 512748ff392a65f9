// Package observability exposes Prometheus metrics for the planning HTTP
// surface.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlanCollector bundles the HTTP and planning metrics.
type PlanCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec

	PlanWaypoints prometheus.Gauge
	PlanStages    prometheus.Gauge
	RunActive     prometheus.Gauge
}

// NewPlanCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewPlanCollector(reg prometheus.Registerer) (*PlanCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flygo_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}), "flygo_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flygo_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route"}), "flygo_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flygo_plan_cache_lookups_total",
		Help: "Grid plan cache lookups, labeled by result (hit or miss).",
	}, []string{"result"}), "flygo_plan_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	waypoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flygo_plan_waypoints",
		Help: "Number of waypoints in the last planned mission.",
	}), "flygo_plan_waypoints")
	if err != nil {
		return nil, err
	}
	stages, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flygo_plan_stages",
		Help: "Number of battery stages in the last planned mission.",
	}), "flygo_plan_stages")
	if err != nil {
		return nil, err
	}
	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flygo_run_active",
		Help: "1 while an asynchronous planning run is in progress.",
	}), "flygo_run_active")
	if err != nil {
		return nil, err
	}

	return &PlanCollector{
		gatherer:      gatherer,
		HTTPRequests:  requests,
		HTTPDurations: durations,
		CacheLookups:  lookups,
		PlanWaypoints: waypoints,
		PlanStages:    stages,
		RunActive:     active,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlanCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Instrument wraps h so that every request is counted and timed under route.
// A nil collector returns h unchanged.
func (c *PlanCollector) Instrument(route string, h http.Handler) http.Handler {
	if c == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h.ServeHTTP(sw, r)
		c.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.code)).Inc()
		c.HTTPDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObservePlan records the size of a freshly planned mission.
func (c *PlanCollector) ObservePlan(waypoints, stages int) {
	if c == nil {
		return
	}
	c.PlanWaypoints.Set(float64(waypoints))
	c.PlanStages.Set(float64(stages))
}

// ObserveCache records one plan cache lookup.
func (c *PlanCollector) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// SetRunActive flips the run gauge.
func (c *PlanCollector) SetRunActive(active bool) {
	if c == nil {
		return
	}
	if active {
		c.RunActive.Set(1)
	} else {
		c.RunActive.Set(0)
	}
}

// statusWriter records the status code and keeps streaming responses working.
type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
