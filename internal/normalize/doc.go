// Package normalize maps heterogeneous upstream response bodies into one
// canonical shape: a flat, ordered slice of opaque JSON records.
//
// Telemetry upstreams disagree on envelopes: some return a bare array,
// some an OData-style {"value": [...]} wrapper, some a custom
// {"data": [...]} wrapper, and some an unrecognized object with the record
// array buried in an arbitrary property. Callers never special-case any of
// these; a response is only considered successful when a record array can
// be extracted from it.
package normalize
