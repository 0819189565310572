// Package keys turns composite query keys into canonical strings.
//
// A key is an ordered sequence of segments, e.g. K("users", 42, "profile").
// Its canonical form is the compact JSON array of the segments
// (["users",42,"profile"]). The form is deterministic and order-sensitive,
// map keys are sorted, and numbers compare by value, so 1 and 1.0 are the
// same segment while 1 and "1" are not. Canonical keys can be split back
// into per-segment encodings, which is what prefix invalidation relies on.
package keys

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidKey is the sentinel wrapped by every *KeyError.
var ErrInvalidKey = errors.New("keys: invalid key")

// KeyError reports a segment that cannot be encoded: func, chan, complex,
// NaN/Inf, cyclic graphs, invalid UTF-8 strings and []byte values.
type KeyError struct {
	Index int
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("keys: segment %d: %v", e.Index, e.Err)
}

func (e *KeyError) Unwrap() []error { return []error{ErrInvalidKey, e.Err} }

// Key is an ordered sequence of key segments.
type Key []any

// K builds a Key from its segments.
func K(segs ...any) Key { return Key(segs) }

// Canonical is the encoded form of a Key used for lookup and equality.
// The empty string is never produced by Encode and means "no key".
type Canonical string

func (c Canonical) String() string { return string(c) }

// Encode returns the canonical form of k. An empty key encodes to "[]".
func Encode(k Key) (Canonical, error) {
	segs, err := encodeSegments(k)
	if err != nil {
		return "", err
	}
	return join(segs), nil
}

// MustEncode is like Encode but panics on error. Handy for constant keys.
func MustEncode(k Key) Canonical {
	c, err := Encode(k)
	if err != nil {
		panic(err)
	}
	return c
}

// Segments splits c into the encodings of its segments.
func (c Canonical) Segments() ([]json.RawMessage, error) {
	if c == "" {
		return nil, nil
	}
	var segs []json.RawMessage
	if err := json.Unmarshal([]byte(c), &segs); err != nil {
		return nil, fmt.Errorf("keys: decode %q: %w", string(c), err)
	}
	return segs, nil
}

// Decode recovers the segment values of c. Numbers come back as json.Number.
func (c Canonical) Decode() (Key, error) {
	if c == "" {
		return Key{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(c)))
	dec.UseNumber()
	var k Key
	if err := dec.Decode(&k); err != nil {
		return nil, fmt.Errorf("keys: decode %q: %w", string(c), err)
	}
	return k, nil
}

// Normalize rewrites c into the form Encode produces. Whitespace is
// dropped and numbers are re-encoded by value, so ["a", 1.0] becomes
// ["a",1]. Use it on canonical keys that did not come from Encode.
func Normalize(c Canonical) (Canonical, error) {
	k, err := c.Decode()
	if err != nil {
		return "", err
	}
	for i := range k {
		k[i] = numbersByValue(k[i])
	}
	return Encode(k)
}

func numbersByValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(t), 10, 64); err == nil {
			return u
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	case []any:
		for i := range t {
			t[i] = numbersByValue(t[i])
		}
		return t
	case map[string]any:
		for k, x := range t {
			t[k] = numbersByValue(x)
		}
		return t
	}
	return v
}

// Empty reports whether c has no segments.
func (c Canonical) Empty() bool {
	return c == "" || c == "[]"
}

// HasPrefix reports whether every segment of prefix equals the segment of c
// at the same index. An empty prefix matches everything. Keys that fail to
// decode never match.
func (c Canonical) HasPrefix(prefix Canonical) bool {
	if prefix.Empty() {
		return true
	}
	// Fast reject: a prefix of segments is also a byte prefix of the
	// canonical form once the closing bracket is dropped.
	open := strings.TrimSuffix(string(prefix), "]")
	if !strings.HasPrefix(string(c), open) {
		return false
	}
	ps, err := prefix.Segments()
	if err != nil {
		return false
	}
	fs, err := c.Segments()
	if err != nil {
		return false
	}
	return segmentsPrefix(ps, fs)
}

// IsPrefix reports whether prefix is a positional prefix of full.
// Keys that cannot be encoded never match.
func IsPrefix(prefix, full Key) bool {
	ps, err := encodeSegments(prefix)
	if err != nil {
		return false
	}
	fs, err := encodeSegments(full)
	if err != nil {
		return false
	}
	return segmentsPrefix(ps, fs)
}

// Equal reports positional equality of a and b.
func Equal(a, b Key) bool {
	if len(a) != len(b) {
		return false
	}
	return IsPrefix(a, b)
}

func segmentsPrefix(prefix, full []json.RawMessage) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if !bytes.Equal(prefix[i], full[i]) {
			return false
		}
	}
	return true
}

func encodeSegments(k Key) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(k))
	for i, seg := range k {
		if err := validateSegment(seg); err != nil {
			return nil, &KeyError{Index: i, Err: err}
		}
		b, err := json.Marshal(seg)
		if err != nil {
			return nil, &KeyError{Index: i, Err: err}
		}
		out[i] = b
	}
	return out, nil
}

func join(segs []json.RawMessage) Canonical {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range segs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(s)
	}
	b.WriteByte(']')
	return Canonical(b.String())
}
