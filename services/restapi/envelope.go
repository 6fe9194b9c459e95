package restapi

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// envelope reports whether data is an object wrapping its payload under "data", and returns the payload.
func envelope(data []byte) (json.RawMessage, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	payload, ok := env["data"]
	if !ok {
		return nil, false
	}
	return payload, true
}

func isEmpty(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("{}"))
}

// decodeOne decodes a `{"data": T}` envelope or a raw T. ok is false when the body is empty.
func decodeOne[T any](data []byte) (item T, ok bool, err error) {
	data = bytes.TrimSpace(data)
	if payload, wrapped := envelope(data); wrapped {
		data = bytes.TrimSpace(payload)
	}
	if isEmpty(data) {
		return item, false, nil
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, false, errors.Wrap(err, "decoding response")
	}
	return item, true, nil
}

// decodeList decodes a `{"data": [T]}` envelope or a raw [T]. An empty body is an empty list.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if payload, wrapped := envelope(data); wrapped {
		data = bytes.TrimSpace(payload)
	}
	items := []T{}
	if isEmpty(data) {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "decoding list response")
	}
	return items, nil
}
