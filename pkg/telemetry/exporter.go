// Package telemetry exports the scheduler metrics in Prometheus format.
package telemetry

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// Namespace prefixes all metric names.
const Namespace = "hactar"

// Exporter collects what the Metrics task reports and serves it over HTTP.
// The Metrics task resets the per-task counters after each report, so run
// counts are accumulated here.
type Exporter struct {
	Addr     string
	Registry *prometheus.Registry

	TaskRuns     *prometheus.CounterVec
	TaskStack    *prometheus.GaugeVec
	TaskDuration *prometheus.GaugeVec
	Dispatched   *prometheus.CounterVec
	Dropped      *prometheus.CounterVec

	lock     sync.Mutex
	lastSeen [msg.NumKinds][2]uint64
	listener net.Listener
}

// NewExporter creates an Exporter listening on addr, with deviceID as a
// constant label.
func NewExporter(addr, deviceID string) *Exporter {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"device": deviceID}
	factory := promauto.With(reg)
	return &Exporter{
		Addr:     addr,
		Registry: reg,
		TaskRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   Namespace,
				Name:        "task_runs_total",
				Help:        "Periodic runs of a task",
				ConstLabels: labels,
			},
			[]string{"task"},
		),
		TaskStack: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   Namespace,
				Name:        "task_stack_bytes",
				Help:        "Maximum stack used by a task run in the last report period",
				ConstLabels: labels,
			},
			[]string{"task"},
		),
		TaskDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   Namespace,
				Name:        "task_duration_microseconds",
				Help:        "Maximum duration of a task run in the last report period",
				ConstLabels: labels,
			},
			[]string{"task"},
		),
		Dispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   Namespace,
				Name:        "messages_dispatched_total",
				Help:        "Messages handed to a handler",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		Dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   Namespace,
				Name:        "messages_dropped_total",
				Help:        "Messages of kinds routed to nowhere",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
	}
}

// WatchBattery exports the battery level.
func (e *Exporter) WatchBattery(b *board.Battery) {
	promauto.With(e.Registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "battery_percent",
			Help:      "Battery level",
		},
		func() float64 { return float64(b.Percentage()) },
	)
}

// ObserveTask implements tasks.MetricsSink.
func (e *Exporter) ObserveTask(index int, m framework.TaskMetrics) {
	name := m.Name
	if name == "" {
		name = "task" + strconv.Itoa(index)
	}
	e.TaskRuns.WithLabelValues(name).Add(float64(m.RunCount))
	e.TaskStack.WithLabelValues(name).Set(float64(m.MaxStack))
	e.TaskDuration.WithLabelValues(name).Set(float64(m.MaxDurationUs))
}

// ObserveDispatch implements tasks.MetricsSink. The counts are totals since
// boot, only the increase is added.
func (e *Exporter) ObserveDispatch(kind msg.Kind, dispatched, dropped uint64) {
	e.lock.Lock()
	last := &e.lastSeen[kind]
	dDispatched, dDropped := dispatched-last[0], dropped-last[1]
	last[0], last[1] = dispatched, dropped
	e.lock.Unlock()
	if dDispatched > 0 {
		e.Dispatched.WithLabelValues(kind.String()).Add(float64(dDispatched))
	}
	if dDropped > 0 {
		e.Dropped.WithLabelValues(kind.String()).Add(float64(dDropped))
	}
}

// Handler serves the registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.Registry, promhttp.HandlerOpts{})
}

// Listen opens the listener if not yet, and returns the bound address.
func (e *Exporter) Listen() (net.Addr, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.listener == nil {
		ln, err := net.Listen("tcp", e.Addr)
		if err != nil {
			return nil, err
		}
		e.listener = ln
	}
	return e.listener.Addr(), nil
}

// Run implements Runnable.
func (e *Exporter) Run(ctx context.Context) error {
	addr, err := e.Listen()
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	server := &http.Server{Handler: mux}
	glog.Infof("metrics exported at http://%s/metrics", addr)
	return framework.RunWithContextCloser(ctx, server, func() error {
		if err := server.Serve(e.listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

// AddToLoop implements LoopAdder.
func (e *Exporter) AddToLoop(ctl framework.LoopControl) {
	ctl.AddRunnable(framework.NamedRun("metrics", e))
}
