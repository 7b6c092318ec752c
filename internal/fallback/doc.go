// Package fallback coordinates "try primary store, else remote API, else
// safe default" for telemetry datasets.
//
// The coordinator shields downstream callers from ever observing a fault:
// whatever fails underneath, Fetch resolves to a (possibly empty) record
// collection. Callers therefore render "no data yet" rather than error
// dialogs, and total failure is a monitoring concern, not a user-facing one.
package fallback
