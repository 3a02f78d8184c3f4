// Package batch dispatches independent asynchronous tasks against external
// generation APIs under a bounded concurrency ceiling. It provides two
// dispatch modes: Run, which keeps up to a fixed number of tasks in flight
// and aggregates partial failures, and RunChunks, which executes fixed-size
// groups fully in parallel and stops at the first failure.
//
// Pacing caveat: MinDelayBetweenDispatches delays each task independently
// before it begins executing. Under concurrency several tasks can still be
// in flight at once, so the delay paces a single lane rather than limiting
// aggregate request throughput.
package batch
