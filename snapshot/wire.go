package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

var magic4 = [...]byte{'F', 'Q', 'S', 'N'}

// Wire is a length-prefixed binary format:
//
//	magic(4) | ver(1) | n(u32 be)
//	keyLen(u32 be) | key | written(i64 be, unix ns) | accessed(i64 be, unix ns) | vlen(u32 be) | payload  * n
//
// Decoding is zero-copy for payloads: they alias the input buffer.
type Wire struct{}

var _ Format = Wire{}

func (Wire) Name() string { return "wire" }

func (Wire) Marshal(records []Record) ([]byte, error) {
	total := 4 + 1 + 4
	for _, r := range records {
		total += 4 + len(r.Key) + 8 + 8 + 4 + len(r.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(Version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(records)))
	buf.Write(u4[:])

	for i, r := range records {
		if r.Key == "" {
			return nil, fmt.Errorf("snapshot: record %d has empty key", i)
		}
		binary.BigEndian.PutUint32(u4[:], uint32(len(r.Key)))
		buf.Write(u4[:])
		buf.WriteString(r.Key)

		binary.BigEndian.PutUint64(u8[:], uint64(r.WrittenAt.UnixNano()))
		buf.Write(u8[:])
		binary.BigEndian.PutUint64(u8[:], uint64(r.LastAccessedAt.UnixNano()))
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(r.Payload)))
		buf.Write(u4[:])
		buf.Write(r.Payload)
	}
	return buf.Bytes(), nil
}

func (Wire) Unmarshal(b []byte) ([]Record, error) {
	const hdr = 4 + 1 + 4
	if len(b) < hdr || !bytes.Equal(b[:4], magic4[:]) {
		return nil, ErrCorrupt
	}
	if b[4] != Version {
		return nil, ErrVersion
	}
	off := 5

	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4

	// Each record needs at least 24 bytes; reject absurd counts up front.
	if n > (len(b)-off)/24 {
		return nil, ErrCorrupt
	}

	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if klen <= 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}
		key := string(b[off : off+klen])
		off += klen

		if off+16 > len(b) {
			return nil, ErrCorrupt
		}
		written := int64(binary.BigEndian.Uint64(b[off : off+8]))
		off += 8
		accessed := int64(binary.BigEndian.Uint64(b[off : off+8]))
		off += 8

		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off {
			return nil, ErrCorrupt
		}
		payload := b[off : off+vlen]
		off += vlen

		records = append(records, Record{
			Key:            key,
			Payload:        payload,
			WrittenAt:      time.Unix(0, written).UTC(),
			LastAccessedAt: time.Unix(0, accessed).UTC(),
		})
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return records, nil
}
