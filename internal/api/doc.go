// Package api implements the HTTP REST API and WebSocket server for the
// presence controller.
//
// This package provides:
//   - REST endpoints to inspect the controller, change its timeout and
//     send manual commands
//   - Recent presence events from the SQLite event log
//   - The thermal history and trend when the monitor is enabled
//   - A WebSocket hub broadcasting presence actions and thermal gestures
//   - Prometheus metrics at /metrics
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Graceful Degradation
//
// Only the controller is required. Without a thermal monitor the
// temperature endpoint answers 404; without health checkers the health
// endpoint reports the server alone.
package api
