package thermal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultSysfsPath is the SoC thermal zone on a Raspberry Pi.
const DefaultSysfsPath = "/sys/class/thermal/thermal_zone0/temp"

// Sensor reads a temperature in degrees Celsius.
type Sensor interface {
	Read() (float64, error)
}

// SysfsSensor reads a Linux thermal zone file, which holds millidegrees
// Celsius as a decimal integer.
type SysfsSensor struct {
	Path string
}

// NewSysfsSensor returns a sensor for path, or DefaultSysfsPath when empty.
func NewSysfsSensor(path string) *SysfsSensor {
	if path == "" {
		path = DefaultSysfsPath
	}
	return &SysfsSensor{Path: path}
}

// Read implements Sensor.
func (s *SysfsSensor) Read() (float64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidReading, s.Path, err)
	}

	return float64(milli) / 1000, nil
}
