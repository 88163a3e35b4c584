package thermal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/history"
)

// Defaults used when MonitorOptions leaves a field zero.
const (
	DefaultInterval      = 100 * time.Millisecond
	DefaultHistorySize   = 20
	DefaultDropThreshold = 1.0
)

// Reading is one sample. Unfilled history slots hold the zero Reading,
// which has Valid unset.
type Reading struct {
	Celsius float64
	At      time.Time
	Valid   bool
}

// Recorder persists samples. *influxdb.Client satisfies it.
type Recorder interface {
	WriteTemperature(deviceID string, celsius float64, at time.Time)
}

// GestureFunc is called when the trend turns decreasing. temps holds the
// history newest first.
type GestureFunc func(temps []float64)

// Logger defines the logging interface for the monitor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	// DeviceID tags recorded samples.
	DeviceID string

	// Interval between polls. Default: 100ms.
	Interval time.Duration

	// HistorySize is the number of samples kept. Default: 20, minimum 2.
	HistorySize int

	// DropThreshold is how many degrees the newer half must average below
	// the older half to count as decreasing. Default: 1.0.
	DropThreshold float64

	// Recorder is optional.
	Recorder Recorder

	// OnGesture is optional.
	OnGesture GestureFunc

	// Logger is optional.
	Logger Logger
}

// Monitor polls a Sensor and tracks the temperature trend.
type Monitor struct {
	sensor    Sensor
	deviceID  string
	interval  time.Duration
	threshold float64
	recorder  Recorder
	onGesture GestureFunc
	logger    Logger

	mu         sync.RWMutex
	readings   *history.Buffer[Reading]
	decreasing bool
}

// NewMonitor creates a Monitor. Call Run to start polling.
func NewMonitor(sensor Sensor, opts MonitorOptions) (*Monitor, error) {
	if sensor == nil {
		return nil, fmt.Errorf("%w: sensor is required", ErrInvalidOptions)
	}

	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.HistorySize == 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.DropThreshold == 0 {
		opts.DropThreshold = DefaultDropThreshold
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidOptions)
	}
	if opts.HistorySize < 2 {
		return nil, fmt.Errorf("%w: history size must be at least 2", ErrInvalidOptions)
	}
	if opts.DropThreshold < 0 {
		return nil, fmt.Errorf("%w: drop threshold must be positive", ErrInvalidOptions)
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Monitor{
		sensor:    sensor,
		deviceID:  opts.DeviceID,
		interval:  opts.Interval,
		threshold: opts.DropThreshold,
		recorder:  opts.Recorder,
		onGesture: opts.OnGesture,
		logger:    logger,
		readings:  history.New(opts.HistorySize, Reading{}),
	}, nil
}

// Run samples immediately and then every interval until ctx is done.
// It always returns nil; sensor errors are logged and the poll skipped.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("thermal monitor started",
		"interval", m.interval,
		"history_size", m.readings.Cap(),
	)

	for {
		if _, err := m.Sample(); err != nil {
			m.logger.Warn("thermal sample failed", "error", err)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("thermal monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Sample reads the sensor once, stores the reading and re-evaluates the
// trend. OnGesture fires when the trend changes from steady to decreasing.
func (m *Monitor) Sample() (Reading, error) {
	celsius, err := m.sensor.Read()
	if err != nil {
		return Reading{}, err
	}

	r := Reading{Celsius: celsius, At: time.Now(), Valid: true}

	m.mu.Lock()
	m.readings.Push(r)
	temps := m.temperaturesLocked()
	decreasing := m.decreasingLocked(temps)
	turned := decreasing && !m.decreasing
	m.decreasing = decreasing
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.WriteTemperature(m.deviceID, r.Celsius, r.At)
	}

	if turned {
		m.logger.Info("temperature decreasing", "temperatures", temps)
		if m.onGesture != nil {
			m.onGesture(temps)
		}
	}

	return r, nil
}

// Temperatures returns the stored readings, newest first.
func (m *Monitor) Temperatures() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.temperaturesLocked()
}

// Latest returns the most recent reading.
func (m *Monitor) Latest() (Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := m.readings.At(0)
	return r, r.Valid
}

// Average returns the mean of up to n readings starting at index start
// (0 is the newest). It returns false when the range holds no readings.
func (m *Monitor) Average(start, n int) (float64, bool) {
	temps := m.Temperatures()
	if start < 0 || n <= 0 || start >= len(temps) {
		return 0, false
	}
	end := min(start+n, len(temps))
	return mean(temps[start:end]), true
}

// IsDecreasing reports whether the newer half of the history averages more
// than the drop threshold below the older half. It is false until more
// than half the history has been filled.
func (m *Monitor) IsDecreasing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.decreasingLocked(m.temperaturesLocked())
}

// Capacity returns the history size.
func (m *Monitor) Capacity() int {
	return m.readings.Cap()
}

func (m *Monitor) temperaturesLocked() []float64 {
	temps := make([]float64, 0, m.readings.Cap())
	for r := range m.readings.All() {
		if r.Valid {
			temps = append(temps, r.Celsius)
		}
	}
	return temps
}

func (m *Monitor) decreasingLocked(temps []float64) bool {
	mid := m.readings.Cap() / 2
	if len(temps) <= mid {
		return false
	}
	newer, older := temps[:mid], temps[mid:]
	return mean(newer)+m.threshold < mean(older)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
