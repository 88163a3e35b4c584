// Package thermal samples a temperature sensor and detects touch gestures.
//
// A finger placed on the SoC of a small board cools it by a degree or more
// within a second or two. Monitor polls the sensor into a fixed-size
// history and reports when the newer half of the readings averages clearly
// below the older half. It cannot tell a finger apart from a CPU-heavy
// process exiting, so it is only useful as an opt-in gesture.
//
// Thread Safety:
//   - Monitor read methods are safe to call while Run is polling.
package thermal
