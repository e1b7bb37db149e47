// Package iojson reads JSON requests and writes JSON results for the
// commands that mirror the HTTP API on the command line.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error mirrors the API error body, with optional context about the request
// that failed.
type Error struct {
	Error string         `json:"error"`
	Data  map[string]any `json:"data,omitempty"`
}

// WriteError writes err as an indented Error object to w.
func WriteError(w io.Writer, err error, data map[string]any) error {
	bits, mErr := json.MarshalIndent(Error{Error: err.Error(), Data: data}, "", "  ")
	if mErr != nil {
		// data was not serializable; the message alone always is
		bits, _ = json.MarshalIndent(Error{Error: err.Error()}, "", "  ")
	}

	_, wErr := fmt.Fprintln(w, string(bits))
	return wErr
}

// WriteWith writes obj as indented JSON to w. A value that cannot be
// marshaled is reported on ew as an Error object.
func WriteWith(w, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return WriteError(ew, fmt.Errorf("marshal output: %w", err), nil)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
