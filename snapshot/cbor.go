package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR writes snapshots with RFC 8949 core deterministic encoding, so two
// stores holding the same entries produce identical bytes.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Format = CBOR{}

func NewCBOR() CBOR {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		panic(err) // static options
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return CBOR{enc: em, dec: dm}
}

func (CBOR) Name() string { return "cbor" }

func (c CBOR) Marshal(records []Record) ([]byte, error) {
	if c.enc == nil {
		c = NewCBOR()
	}
	return c.enc.Marshal(envelope{Version: Version, Entries: records})
}

func (c CBOR) Unmarshal(b []byte) ([]Record, error) {
	if c.dec == nil {
		c = NewCBOR()
	}
	var env envelope
	if err := c.dec.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return open(env)
}
