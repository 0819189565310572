package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes cached payloads with fxamacker/cbor. Build it with NewCBOR
// or MustCBOR; the zero value has no modes and panics on use.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// CBOROptions configure NewCBOR.
type CBOROptions struct {
	// Deterministic selects RFC 8949 Core Deterministic encoding so equal
	// values produce equal payloads. Otherwise map keys stay unsorted.
	Deterministic bool
	// MaxNestedLevels caps decode depth; 0 => library default (32).
	MaxNestedLevels int
	// RejectDuplicateKeys fails decoding of maps that repeat a key.
	RejectDuplicateKeys bool
}

// NewCBOR builds a CBOR codec. Times are written as RFC3339Nano strings.
func NewCBOR[V any](opts CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if opts.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}

	do := cbor.DecOptions{MaxNestedLevels: opts.MaxNestedLevels}
	if opts.RejectDuplicateKeys {
		do.DupMapKey = cbor.DupMapKeyEnforcedAPF
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR[V any](opts CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}
