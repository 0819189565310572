package codec

import "fmt"

// TooLargeError is returned when a payload exceeds a Limit bound.
type TooLargeError struct {
	Op    string // "encode" or "decode"
	Size  int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: %s payload too large: %d > %d", e.Op, e.Size, e.Limit)
}

// Limit wraps another codec and bounds payload sizes. A bound <= 0
// disables that side.
//
// MaxDecode protects against oversized inputs read back from a shared
// medium; MaxEncode keeps single values from bloating a persisted snapshot.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxEncode int
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, &TooLargeError{Op: "encode", Size: len(b), Limit: c.MaxEncode}
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, &TooLargeError{Op: "decode", Size: len(b), Limit: c.MaxDecode}
	}
	return c.Inner.Decode(b)
}
