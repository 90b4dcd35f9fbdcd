// Package scheduler executes an ExecutionPlan: tiers run strictly in order,
// checks within a tier run concurrently on a bounded worker pool, and every
// state change is published to a progress sink. A failing check never stops
// its siblings unless StopOnFirstFailure is set.
package scheduler
