package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Shape identifies which recognized layout a response body matched.
type Shape int

const (
	ShapeArray        Shape = iota // bare JSON array
	ShapeValueWrapped              // OData-style {"value": [...]}
	ShapeDataWrapped               // custom {"data": [...]}
	ShapeScanned                   // first array-valued property of an unrecognized object
	ShapeInvalid                   // no record array found
)

// ErrUnrecognizedShape marks a body that was received and parsed but
// contains no extractable record array. Callers treat this as a failed
// attempt even though the upstream answered.
var ErrUnrecognizedShape = errors.New("no record array found in response body")

// countFields are the sibling properties consulted, in order, for an
// upstream-reported total record count.
var countFields = []string{"@odata.count", "count", "total", "totalRecords"}

// Result is the canonical form of an upstream response: a flat, ordered
// record slice regardless of how the upstream wrapped it. TotalCount is -1
// unless the upstream reported one.
type Result struct {
	Shape      Shape
	Records    []json.RawMessage
	TotalCount int
}

// Normalize maps an arbitrary JSON response body into the canonical record
// collection. Classification order: bare array, "value" wrapper, "data"
// wrapper, then a best-effort scan for the first array-valued top-level
// property in document order.
func Normalize(body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Result{Shape: ShapeInvalid, TotalCount: -1}, fmt.Errorf("empty body: %w", ErrUnrecognizedShape)
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Result{Shape: ShapeInvalid, TotalCount: -1}, fmt.Errorf("malformed array body: %w", ErrUnrecognizedShape)
		}
		return Result{Shape: ShapeArray, Records: records, TotalCount: -1}, nil
	}

	if trimmed[0] != '{' {
		return Result{Shape: ShapeInvalid, TotalCount: -1}, fmt.Errorf("body is not an array or object: %w", ErrUnrecognizedShape)
	}

	keys, fields, err := decodeObject(trimmed)
	if err != nil {
		return Result{Shape: ShapeInvalid, TotalCount: -1}, fmt.Errorf("malformed object body: %w", ErrUnrecognizedShape)
	}

	total := reportedTotal(fields)

	if raw, ok := fields["value"]; ok && isArray(raw) {
		return extract(ShapeValueWrapped, raw, total)
	}

	if raw, ok := fields["data"]; ok && isArray(raw) {
		return extract(ShapeDataWrapped, raw, total)
	}

	// Unrecognized wrapper: take the first array-valued property in
	// document order.
	for _, key := range keys {
		if isArray(fields[key]) {
			return extract(ShapeScanned, fields[key], total)
		}
	}

	return Result{Shape: ShapeInvalid, TotalCount: -1}, ErrUnrecognizedShape
}

func extract(shape Shape, raw json.RawMessage, total int) (Result, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return Result{Shape: ShapeInvalid, TotalCount: -1}, fmt.Errorf("malformed record array: %w", ErrUnrecognizedShape)
	}
	return Result{Shape: shape, Records: records, TotalCount: total}, nil
}

// decodeObject walks the top-level object with a token decoder so property
// order is preserved; encoding/json maps would lose it.
func decodeObject(body []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	if _, err := dec.Token(); err != nil { // consume '{'
		return nil, nil, err
	}

	var keys []string
	fields := make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}

		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = raw
	}

	return keys, fields, nil
}

func reportedTotal(fields map[string]json.RawMessage) int {
	for _, name := range countFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil && n >= 0 {
			return n
		}
	}
	return -1
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeValueWrapped:
		return "value-wrapped"
	case ShapeDataWrapped:
		return "data-wrapped"
	case ShapeScanned:
		return "embedded-array"
	default:
		return "non-standard"
	}
}
