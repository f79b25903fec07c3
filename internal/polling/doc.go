// Package polling runs a fetch function on a repeating cycle.
//
// # Cycle
//
// Start polls immediately. After a success the Poller waits Options.Delay
// (default 10s) and polls again. After a failure it runs the catch hook,
// reports the error and, while the retry budget allows, waits
//
//	min(600s, 1s * 2^retries)
//
// before retrying. The first success resets the sequence.
//
// # Lifecycle
//
// The Poller tracks its state with a looplab/fsm machine:
//
//	idle -> polling -> waiting -> polling ...
//	                -> backoff -> polling ...
//	any  -> idle (Stop, context cancelled, retry budget exhausted)
//
// Stop cancels the context passed to the fetch function, so an in-flight
// request is abandoned and its result ignored. A fetch that returns
// context.Canceled ends the cycle without being reported.
//
// # Metrics
//
// NewMetrics registers mlconsole_poll_cycles_total,
// mlconsole_poll_duration_seconds and mlconsole_poll_delay_seconds, each
// labelled by store.
package polling
