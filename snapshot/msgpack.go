package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a compact binary format. The zero value is ready to use.
type Msgpack struct{}

var _ Format = Msgpack{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(records []Record) ([]byte, error) {
	return msgpack.Marshal(envelope{Version: Version, Entries: records})
}

func (Msgpack) Unmarshal(b []byte) ([]Record, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return open(env)
}
