package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
type Msgpack[V any] struct {
	// JSONTags makes fields without a `msgpack` tag follow their `json` tag,
	// so one type can share field names between the JSON and Msgpack codecs.
	JSONTags bool
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	if !c.JSONTags {
		return msgpack.Marshal(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.JSONTags {
		err := msgpack.Unmarshal(b, &v)
		return v, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	err := dec.Decode(&v)
	return v, err
}
