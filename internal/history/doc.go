// Package history provides a fixed-capacity ring buffer for rolling-window
// trend sampling.
//
// A Buffer keeps the last N pushed values. Push is O(1) and never allocates;
// reads are positional and most-recent-first:
//
//	buf := history.New[float64](20, math.NaN())
//	buf.Push(41.2)
//	buf.Push(40.8)
//	latest, _ := buf.Get(0) // 40.8
//
// Slots that have never been written hold the sentinel passed to New.
//
// Thread Safety:
//   - A Buffer is not safe for concurrent use. Callers sharing a Buffer
//     across goroutines must guard it themselves (see thermal.Monitor).
package history
