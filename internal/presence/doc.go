// Package presence drives a light from motion.
//
// The Controller owns a timer.Service. Motion edges and manual commands
// become timer signals; the timer's actions become light changes:
//
//   - TimedOut: remember the current colour and fade down to the dim level.
//   - Started after a timeout: restore the remembered colour, unless the
//     light no longer sits on the fade path (someone changed it by hand).
//   - Started while running: nothing, the countdown was extended.
//   - Stopped: nothing, the light is held as it is.
//
// Every action is also recorded in SQLite, published on MQTT, broadcast to
// websocket clients, counted in Prometheus and written to InfluxDB. None of
// those side channels can fail an action; errors are logged and counted.
package presence
