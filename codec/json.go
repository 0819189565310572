package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var errTrailingData = errors.New("codec: trailing data after JSON value")

// JSON is the default codec. The zero value is ready to use.
// Decoding is strict about trailing data so truncated or concatenated
// payloads are rejected.
type JSON[V any] struct {
	// UseNumber decodes numbers inside interface values as json.Number.
	UseNumber bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	if c.UseNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); err != io.EOF {
		var zero V
		return zero, errTrailingData
	}
	return v, nil
}
