package presence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the controller's Prometheus collectors.
type Metrics struct {
	actions         *prometheus.CounterVec
	lightCommands   *prometheus.CounterVec
	wakeDecisions   *prometheus.CounterVec
	sideEffectFails *prometheus.CounterVec
	gestures        prometheus.Counter
	running         prometheus.Gauge
	timeout         prometheus.Gauge
}

// NewMetrics registers the controller collectors with reg.
// Pass the registry served at /metrics; tests use a fresh one each.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels: action (started, timed_out, stopped), restarted (true, false)
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "actions_total",
			Help:      "Timer actions handled by the controller",
		}, []string{"action", "restarted"}),

		// Labels: reason (dim, restore, full_on, gesture), result (ok, error)
		lightCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "light_commands_total",
			Help:      "Light commands sent by the controller",
		}, []string{"reason", "result"}),

		// Labels: outcome (restored, overridden, full_on)
		wakeDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "wake_decisions_total",
			Help:      "Decisions taken when activity resumed after a timeout",
		}, []string{"outcome"}),

		// Labels: sink (repository, mqtt, influxdb)
		sideEffectFails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "side_effect_errors_total",
			Help:      "Failures recording or publishing an action",
		}, []string{"sink"}),

		gestures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "thermal_gestures_total",
			Help:      "Thermal touch gestures detected",
		}),

		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "timer_running",
			Help:      "1 while the countdown is running, 0 when idle",
		}),

		timeout: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "graylogic",
			Subsystem: "presence",
			Name:      "timeout_seconds",
			Help:      "Configured idle timeout",
		}),
	}
}

// The methods below accept a nil receiver so the controller can run
// without metrics.

func (m *Metrics) observeAction(kind string, restarted bool) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, boolLabel(restarted)).Inc()
}

func (m *Metrics) setRunning(running bool) {
	if m == nil {
		return
	}
	m.running.Set(boolGauge(running))
}

func (m *Metrics) observeLightCommand(reason string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.lightCommands.WithLabelValues(reason, result).Inc()
}

func (m *Metrics) observeWake(outcome string) {
	if m == nil {
		return
	}
	m.wakeDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeSideEffectError(sink string) {
	if m == nil {
		return
	}
	m.sideEffectFails.WithLabelValues(sink).Inc()
}

func (m *Metrics) observeGesture() {
	if m == nil {
		return
	}
	m.gestures.Inc()
}

func (m *Metrics) setTimeout(d time.Duration) {
	if m == nil {
		return
	}
	m.timeout.Set(d.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
