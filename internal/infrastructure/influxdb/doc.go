// Package influxdb provides InfluxDB connectivity for the presence controller.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// # Purpose
//
// This package records time-series data for:
//   - Thermal samples feeding the touch gesture
//   - Presence timer transitions (wake, keep-alive, timeout, stop)
//   - Colour commands sent to the light
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteTemperature("hallway", 31.4, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Writes never return errors; batch failures are delivered to the
// SetOnError callback. Connection and health check errors are returned.
package influxdb
