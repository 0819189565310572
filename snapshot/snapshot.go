// Package snapshot serializes the full entry map of a persisted store into
// the single value kept under its storage key.
//
// Every format carries a version. Any decoding problem (truncated input,
// wrong magic, foreign version) is reported as an error and the caller is
// expected to start from an empty map.
package snapshot

import (
	"errors"
	"time"
)

// Version is the schema version written by every format.
const Version = 1

var (
	ErrCorrupt = errors.New("snapshot: corrupt data")
	ErrVersion = errors.New("snapshot: unsupported version")
)

// Record is one persisted cache entry.
type Record struct {
	Key            string    `json:"key" cbor:"1,keyasint" msgpack:"k"`
	Payload        []byte    `json:"payload" cbor:"2,keyasint" msgpack:"p"`
	WrittenAt      time.Time `json:"writtenAt" cbor:"3,keyasint" msgpack:"w"`
	LastAccessedAt time.Time `json:"lastAccessedAt" cbor:"4,keyasint" msgpack:"a"`
}

// Format encodes and decodes a whole snapshot.
type Format interface {
	Name() string
	Marshal(records []Record) ([]byte, error)
	Unmarshal(b []byte) ([]Record, error)
}

type envelope struct {
	Version int      `json:"version" cbor:"1,keyasint" msgpack:"v"`
	Entries []Record `json:"entries" cbor:"2,keyasint" msgpack:"e"`
}

func open(env envelope) ([]Record, error) {
	if env.Version != Version {
		return nil, ErrVersion
	}
	return env.Entries, nil
}

// ByName returns the format registered under name, or JSON for "".
func ByName(name string) (Format, bool) {
	switch name {
	case "", "json":
		return JSON{}, true
	case "cbor":
		return NewCBOR(), true
	case "msgpack":
		return Msgpack{}, true
	case "wire":
		return Wire{}, true
	}
	return nil, false
}
