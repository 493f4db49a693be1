//go:build metrics

// Package metricsexport exports pacer's internal controller/sampler state
// as Prometheus metrics. It is compiled in only under the "metrics" build
// tag so the core engine carries no mandatory Prometheus dependency.
package metricsexport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves per-scenario controller metrics over HTTP for Prometheus
// to scrape. Thread-safe for concurrent use by multiple scenario runs.
type Exporter struct {
	mu        sync.Mutex
	cfg       Config
	registry  *prometheus.Registry
	scenarios map[string]*ScenarioMetrics

	server *http.Server
	ln     net.Listener
}

// Config controls where the exporter listens.
type Config struct {
	// Port is the HTTP port for the metrics endpoint. Default: 9090.
	Port int
	// Path is the URL path for the metrics endpoint. Default: /metrics.
	Path string
}

// NewExporter creates an Exporter with its own registry, isolated from the
// global Prometheus default registry.
func NewExporter(cfg Config) *Exporter {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	return &Exporter{
		cfg:       cfg,
		registry:  prometheus.NewRegistry(),
		scenarios: make(map[string]*ScenarioMetrics),
	}
}

// ScenarioMetrics returns the metric set for name, creating and registering
// it against the exporter's registry on first use.
func (e *Exporter) ScenarioMetrics(name string) *ScenarioMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sm, ok := e.scenarios[name]; ok {
		return sm
	}

	sm := newScenarioMetrics(name)
	e.registry.MustRegister(
		sm.goalTPS, sm.concurrency, sm.ercGoalTPS, sm.ercState, sm.lcGoalTPS,
		sm.success, sm.errors, sm.latency,
	)
	e.scenarios[name] = sm
	return sm
}

// Start begins serving /metrics on the configured port.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", e.cfg.Port))
	if err != nil {
		return fmt.Errorf("metricsexport: listen: %w", err)
	}
	e.ln = ln

	mux := http.NewServeMux()
	mux.Handle(e.cfg.Path, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = e.server.Serve(ln) }()
	return nil
}

// Stop shuts the HTTP server down.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	server := e.server
	e.server = nil
	e.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// ScenarioMetrics holds the gauges/counters for one named scenario, per
// spec's pacer_<name>_ naming scheme.
type ScenarioMetrics struct {
	goalTPS     prometheus.Gauge
	concurrency prometheus.Gauge
	ercGoalTPS  prometheus.Gauge
	ercState    prometheus.Gauge
	lcGoalTPS   prometheus.Gauge

	success prometheus.Counter
	errors  prometheus.Counter
	latency prometheus.Histogram
}

func newScenarioMetrics(name string) *ScenarioMetrics {
	gauge := func(metric, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("pacer_%s_%s", name, metric),
			Help: help,
		})
	}

	return &ScenarioMetrics{
		goalTPS:     gauge("goal_tps", "Current composite TPS goal."),
		concurrency: gauge("concurrency", "Current concurrent worker count."),
		ercGoalTPS:  gauge("erc_goal_tps", "Error-rate controller's candidate goal."),
		ercState:    gauge("erc_state", "Error-rate controller state (0=big_step,1=small_step,2=stable)."),
		lcGoalTPS:   gauge("lc_goal_tps", "Latency controller's candidate goal."),
		success: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("pacer_%s_success_total", name),
			Help: "Total successful transactions.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("pacer_%s_error_total", name),
			Help: "Total failed transactions.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("pacer_%s_latency_seconds", name),
			Help:    "Transaction latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// SetGoalTPS records the composite controller's current goal.
func (s *ScenarioMetrics) SetGoalTPS(tps uint32) { s.goalTPS.Set(float64(tps)) }

// SetConcurrency records the sampler's current worker count.
func (s *ScenarioMetrics) SetConcurrency(n int) { s.concurrency.Set(float64(n)) }

// SetErrorRateController records the error-rate controller's goal and state.
// state: 0=big_step, 1=small_step, 2=stable.
func (s *ScenarioMetrics) SetErrorRateController(goalTPS uint32, state int) {
	s.ercGoalTPS.Set(float64(goalTPS))
	s.ercState.Set(float64(state))
}

// SetLatencyController records the latency controller's candidate goal.
func (s *ScenarioMetrics) SetLatencyController(goalTPS uint32) {
	s.lcGoalTPS.Set(float64(goalTPS))
}

// RecordSuccess increments the success counter.
func (s *ScenarioMetrics) RecordSuccess() { s.success.Inc() }

// RecordError increments the error counter.
func (s *ScenarioMetrics) RecordError() { s.errors.Inc() }

// ObserveLatency records a transaction's latency.
func (s *ScenarioMetrics) ObserveLatency(d time.Duration) {
	s.latency.Observe(d.Seconds())
}
