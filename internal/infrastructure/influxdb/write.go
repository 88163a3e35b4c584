package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the controller.
const (
	MeasurementTemperature    = "temperature"
	MeasurementPresenceAction = "presence_action"
	MeasurementLightCommand   = "light_command"
)

// WriteTemperature records one thermal sample.
//
// Parameters:
//   - deviceID: Controller the sensor belongs to
//   - celsius: Sample value in °C
//   - at: When the sample was taken
func (c *Client) WriteTemperature(deviceID string, celsius float64, at time.Time) {
	c.WritePointWithTime(MeasurementTemperature,
		map[string]string{"device_id": deviceID},
		map[string]any{"celsius": celsius},
		at,
	)
}

// WritePresenceAction records a timer transition.
//
// The action kind is a tag so dashboards can count wakes and timeouts
// per device; the flags are fields.
//
// Example:
//
//	client.WritePresenceAction("hallway", "timed_out", false, false, time.Now())
func (c *Client) WritePresenceAction(deviceID, action string, restarted, alreadyStopped bool, at time.Time) {
	c.WritePointWithTime(MeasurementPresenceAction,
		map[string]string{
			"device_id": deviceID,
			"action":    action,
		},
		map[string]any{
			"restarted":       restarted,
			"already_stopped": alreadyStopped,
			"count":           1,
		},
		at,
	)
}

// WriteLightCommand records a colour command sent to the light.
//
// Parameters:
//   - deviceID: Controller that sent the command
//   - reason: Why it was sent ("dim", "wake", "gesture")
//   - brightness: Target brightness (0-65535)
//   - duration: Transition length
func (c *Client) WriteLightCommand(deviceID, reason string, brightness uint16, duration time.Duration) {
	c.WritePoint(MeasurementLightCommand,
		map[string]string{
			"device_id": deviceID,
			"reason":    reason,
		},
		map[string]any{
			"brightness":  int64(brightness),
			"duration_ms": duration.Milliseconds(),
		},
	)
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
// The write is non-blocking; it is dropped silently when disconnected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
