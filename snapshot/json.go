package snapshot

import (
	"encoding/json"
	"fmt"
)

// JSON is the default format. Payload bytes are base64 encoded.
type JSON struct{}

var _ Format = JSON{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(records []Record) ([]byte, error) {
	return json.Marshal(envelope{Version: Version, Entries: records})
}

func (JSON) Unmarshal(b []byte) ([]Record, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return open(env)
}
