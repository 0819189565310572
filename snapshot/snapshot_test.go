package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFormats() []Format {
	return []Format{JSON{}, NewCBOR(), Msgpack{}, Wire{}}
}

func TestFormatsPreserveEntries(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)
	records := []Record{
		{Key: `["users",1]`, Payload: []byte(`{"name":"ada"}`), WrittenAt: t0, LastAccessedAt: t0.Add(time.Minute)},
		{Key: `["users",2]`, Payload: []byte{0, 1, 2}, WrittenAt: t0, LastAccessedAt: t0},
	}
	for _, f := range allFormats() {
		t.Run(f.Name(), func(t *testing.T) {
			b, err := f.Marshal(records)
			require.NoError(t, err)

			got, err := f.Unmarshal(b)
			require.NoError(t, err)
			require.Len(t, got, len(records))
			for i := range records {
				assert.Equal(t, records[i].Key, got[i].Key)
				assert.Equal(t, records[i].Payload, got[i].Payload)
				assert.True(t, records[i].WrittenAt.Equal(got[i].WrittenAt))
				assert.True(t, records[i].LastAccessedAt.Equal(got[i].LastAccessedAt))
			}
		})
	}
}

func TestFormatsRejectGarbage(t *testing.T) {
	for _, f := range allFormats() {
		t.Run(f.Name(), func(t *testing.T) {
			_, err := f.Unmarshal([]byte("{not json"))
			require.Error(t, err)
		})
	}
}

func TestJSONRejectsForeignVersion(t *testing.T) {
	_, err := JSON{}.Unmarshal([]byte(`{"version":99,"entries":[]}`))
	assert.True(t, errors.Is(err, ErrVersion))

	_, err = JSON{}.Unmarshal([]byte(`{"entries":[]}`))
	assert.True(t, errors.Is(err, ErrVersion), "missing version is a schema mismatch")
}

func TestCBORDeterministic(t *testing.T) {
	records := []Record{{Key: `["a"]`, Payload: []byte("x"), WrittenAt: time.Unix(10, 0).UTC(), LastAccessedAt: time.Unix(10, 0).UTC()}}
	a, err := NewCBOR().Marshal(records)
	require.NoError(t, err)
	b, err := CBOR{}.Marshal(records)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "cbor", "msgpack", "wire"} {
		f, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, f.Name())
	}
	f, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, "json", f.Name())

	_, ok = ByName("yaml")
	assert.False(t, ok)
}
