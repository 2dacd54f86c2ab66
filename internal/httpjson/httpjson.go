// Package httpjson holds the JSON response and request helpers shared by the
// dispatcher and the admin API.
package httpjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type written with every JSON response.
const ContentType = "application/json; charset=utf-8"

// JSON is a generic JSON object.
type JSON map[string]any

// Encode marshals v with a trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("json encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes v and writes it with the given status code. If encoding
// fails, a plain 500 is written instead.
func Write(w http.ResponseWriter, code int, v any) {
	data, err := Encode(v)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// Error writes {"error": reason} with the given status code.
func Error(w http.ResponseWriter, code int, reason string) {
	Write(w, code, JSON{"error": reason})
}

// Decode decodes exactly one JSON value from the request body into v.
// Unknown fields and trailing data are rejected.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode json: unexpected trailing data after JSON value")
	}

	return nil
}
