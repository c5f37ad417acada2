// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured parses JSON payloads out of free-text model output.
//
// The grammar is fixed: if the text contains a fenced block tagged json,
// its body is the payload; otherwise the first fenced block of any tag;
// otherwise the whole text. The payload must decode as JSON into the
// target and pass the caller's validation. Nothing is repaired or guessed:
// any failure yields a *ParseError carrying the raw text.
package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFence = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n?(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")
)

// ParseError reports a payload that could not be located, decoded, or
// validated. Raw holds the complete model output for diagnostics.
type ParseError struct {
	Stage string // "locate", "decode", or "validate"
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured output %s failed: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Payload returns the JSON payload text located in raw.
func Payload(raw string) string {
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// Parse locates the payload in raw, decodes it into a T, and runs validate
// when it is non-nil.
func Parse[T any](raw string, validate func(T) error) (T, error) {
	var out T
	payload := Payload(raw)
	if payload == "" {
		return out, &ParseError{Stage: "locate", Raw: raw, Err: fmt.Errorf("no payload found")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(&out); err != nil {
		return out, &ParseError{Stage: "decode", Raw: raw, Err: err}
	}
	if dec.More() {
		return out, &ParseError{Stage: "decode", Raw: raw, Err: fmt.Errorf("trailing data after JSON value")}
	}

	if validate != nil {
		if err := validate(out); err != nil {
			return out, &ParseError{Stage: "validate", Raw: raw, Err: err}
		}
	}
	return out, nil
}

// Required returns an error naming the first empty field. Fields are given
// as name/value pairs.
func Required(fields ...string) error {
	if len(fields)%2 != 0 {
		return fmt.Errorf("Required: odd number of arguments")
	}
	for i := 0; i < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return fmt.Errorf("missing required field %q", fields[i])
		}
	}
	return nil
}
