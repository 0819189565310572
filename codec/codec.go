// Package codec converts typed query values to the opaque payload bytes
// kept in cache entries.
package codec

// Codec encodes/decodes values V to []byte for storage.
//
// Decode must reject payloads it did not produce rather than return a
// partially filled value: a failed Decode makes the cache drop the entry.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
