// Package store implements the SQLite-backed primary telemetry store.
// It holds rack power samples and environmental sensor readings and serves
// the latest reading per rack or sensor as canonical JSON records, matching
// what the remote acquisition pipeline produces.
package store
