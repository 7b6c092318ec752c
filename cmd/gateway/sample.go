package main

import "encoding/json"

// sampleDataset returns the built-in default records served when every
// source fails and fallback data is enabled. The values are representative
// placeholders, not live telemetry; the serving source is logged so stale
// sample data is visible in monitoring.
func sampleDataset(name string) []json.RawMessage {
	switch name {
	case "racks":
		return []json.RawMessage{
			json.RawMessage(`{"rack_id":"r1","watts":4200,"sample":true}`),
			json.RawMessage(`{"rack_id":"r2","watts":3850,"sample":true}`),
			json.RawMessage(`{"rack_id":"r3","watts":5100,"sample":true}`),
		}
	case "sensors":
		return []json.RawMessage{
			json.RawMessage(`{"sensor_id":"s1","location":"hall-a","temperature_c":21.5,"humidity_pct":45,"sample":true}`),
			json.RawMessage(`{"sensor_id":"s2","location":"hall-b","temperature_c":23.1,"humidity_pct":41,"sample":true}`),
		}
	default:
		return nil
	}
}
