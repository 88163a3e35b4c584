// Package timer provides a cancellable, restartable idle countdown.
//
// A Service owns one worker goroutine. Producers on any goroutine send it
// signals (Start, Stop, custom payloads); the worker turns them, together with
// a runtime-adjustable timeout, into Actions delivered to a callback:
//
//	svc, err := timer.New[string](5*time.Minute, func(a timer.Action) {
//	    switch {
//	    case a.Kind == timer.ActionTimedOut:
//	        // dim the lights
//	    case a.Kind == timer.ActionStarted && !a.Restarted:
//	        // woken after an idle timeout
//	    }
//	})
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	svc.Start() // keep alive, or wake from idle
//
// # State machine
//
// The worker is either RUNNING (waiting with a deadline) or IDLE (waiting
// without one). It starts RUNNING, so a fresh Service times out after the
// initial timeout unless Start arrives first.
//
//	RUNNING --Start-->     Started{Restarted: true}, deadline resets
//	RUNNING --Stop-->      Stopped{AlreadyStopped: false}, IDLE
//	RUNNING --deadline-->  TimedOut, IDLE
//	IDLE    --Start-->     Started{Restarted: false}, RUNNING
//	IDLE    --Stop-->      Stopped{AlreadyStopped: true} if enabled, else nothing
//	any     --custom-->    logged only; the deadline is unaffected
//	any     --Close-->     worker exits
//
// # Concurrency
//
//   - The callback runs on the worker goroutine, once per Action, never
//     concurrently with itself. It may block; signal processing waits for it.
//   - Signals are processed in send order. Close is ordered after every
//     signal sent before it and no Action fires after Close returns.
//   - SetTimeout applies to the next wait, never to one already in progress.
//   - The timeout and running flag are guarded by a lock that is never held
//     across a wait.
package timer
