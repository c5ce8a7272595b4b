// Package parse extracts a JSON object from free-form oracle output.
//
// The oracle returns prose that is expected to embed exactly one JSON object,
// possibly wrapped in markdown fences or preamble and possibly truncated
// mid-array. Extraction is layered: a strict parse over the brace-bounded
// slice first, then two bracket-repair attempts before giving up.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when the text contains no opening brace at all.
var ErrNoJSON = errors.New("parse: no JSON object found in response")

// ExtractObject locates and parses the JSON object embedded in text.
func ExtractObject(text string) (map[string]any, error) {
	raw, err := ExtractRaw(text)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return obj, nil
}

// ExtractRaw returns the raw JSON bytes of the embedded object, applying
// bracket repair when the strict parse fails.
func ExtractRaw(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}
	body := text[start:]

	// Primary bounds: first opening brace to last closing brace.
	if end := strings.LastIndexByte(body, '}'); end >= 0 {
		bounded := body[:end+1]
		if json.Valid([]byte(bounded)) {
			return []byte(bounded), nil
		}
	}

	// Repair 1: truncate at the last complete array element and re-close.
	if repaired, ok := repairAt(body, "},"); ok {
		return repaired, nil
	}
	// Repair 2: truncate at the last complete object and re-close.
	if repaired, ok := repairAt(body, "}"); ok {
		return repaired, nil
	}

	return nil, fmt.Errorf("parse: could not recover JSON object from response")
}

// repairAt truncates body just past the last occurrence of marker and
// re-closes the enclosing array and object. Returns ok=false when the
// result still fails to parse.
func repairAt(body, marker string) ([]byte, bool) {
	idx := strings.LastIndex(body, marker)
	if idx <= 0 {
		return nil, false
	}
	attempt := body[:idx+1] + "]}"
	if json.Valid([]byte(attempt)) {
		return []byte(attempt), true
	}
	return nil, false
}
