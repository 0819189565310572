package keys

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCanonicalForm(t *testing.T) {
	c, err := Encode(K("users", 42, "profile"))
	require.NoError(t, err)
	assert.Equal(t, Canonical(`["users",42,"profile"]`), c)

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, Canonical("[]"), empty)
	assert.True(t, empty.Empty())
}

func TestEncodeInjective(t *testing.T) {
	distinct := []Key{
		K("a"),
		K("a", "b"),
		K("a,b"),
		K(`a","b`),
		K("1"),
		K(1),
		K(true),
		K("true"),
		K(nil),
		K("null"),
		K([]any{"a", "b"}),
		K("a", []any{"b"}),
		K(map[string]any{"x": 1}),
		K(map[string]any{"x": "1"}),
		K(),
	}
	seen := make(map[Canonical]int, len(distinct))
	for i, k := range distinct {
		c, err := Encode(k)
		require.NoError(t, err)
		if j, dup := seen[c]; dup {
			t.Fatalf("keys %d and %d collide on %q", j, i, c)
		}
		seen[c] = i
	}

	// Lossy inputs would fold onto a valid key, so they never encode.
	for _, k := range []Key{K("\xff"), K("\xfe"), K([]byte("a")), K("x", []any{[]byte("a")})} {
		_, err := Encode(k)
		require.ErrorIs(t, err, ErrInvalidKey)
	}
	_, err := Encode(K("YQ=="))
	require.NoError(t, err)
	_, err = Encode(K("\ufffd"))
	require.NoError(t, err)
}

func TestEncodeNumbersCompareByValue(t *testing.T) {
	a := MustEncode(K(int64(7)))
	b := MustEncode(K(uint8(7)))
	c := MustEncode(K(7.0))
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestEncodeMapOrderIndependent(t *testing.T) {
	m1 := map[string]any{}
	m1["b"] = 2
	m1["a"] = 1
	m2 := map[string]any{"a": 1, "b": 2}
	assert.Equal(t, MustEncode(K("q", m1)), MustEncode(K("q", m2)))
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	type node struct {
		Next *node
	}
	cyclic := &node{}
	cyclic.Next = cyclic

	cases := map[string]Key{
		"func":         K("ok", func() {}),
		"chan":         K(make(chan int)),
		"nan":          K(math.NaN()),
		"inf":          K(math.Inf(1)),
		"cycle":        K("x", cyclic),
		"utf8":         K("ok", "\xff"),
		"bytes":        K([]byte("a")),
		"nested bytes": K(map[string]any{"b": []byte("a")}),
		"map key utf8": K(map[string]int{"\xfe": 1}),
		"struct utf8":  K(struct{ Name string }{"\xff"}),
	}
	for name, k := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Encode(k)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidKey))
			var ke *KeyError
			require.True(t, errors.As(err, &ke))
		})
	}

	_, err := Encode(K("ok", func() {}))
	var ke *KeyError
	require.True(t, errors.As(err, &ke))
	assert.Equal(t, 1, ke.Index)
}

func TestIsPrefix(t *testing.T) {
	full := K("users", 42, "profile")

	assert.True(t, IsPrefix(nil, full))
	assert.True(t, IsPrefix(K(), K()))
	assert.True(t, IsPrefix(full, full))
	assert.True(t, IsPrefix(K("users"), full))
	assert.True(t, IsPrefix(K("users", 42), full))
	assert.False(t, IsPrefix(K("users", "42"), full))
	assert.False(t, IsPrefix(K("user"), full))
	assert.False(t, IsPrefix(K("users", 42, "profile", "x"), full))
}

func TestCanonicalHasPrefix(t *testing.T) {
	full := MustEncode(K("ab", 1))

	assert.True(t, full.HasPrefix(""))
	assert.True(t, full.HasPrefix("[]"))
	assert.True(t, full.HasPrefix(MustEncode(K("ab"))))
	assert.False(t, full.HasPrefix(MustEncode(K("a"))))
	assert.True(t, full.HasPrefix(full))
	assert.False(t, MustEncode(K("ab")).HasPrefix(full))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(K("a", 1), K("a", 1.0)))
	assert.False(t, Equal(K("a"), K("a", 1)))
	assert.False(t, Equal(K("a", 1), K("a", 2)))
	assert.True(t, Equal(nil, K()))
}

func TestDecodeRecoversSegments(t *testing.T) {
	c := MustEncode(K("users", 42, true, nil))
	k, err := c.Decode()
	require.NoError(t, err)
	require.Len(t, k, 4)
	assert.Equal(t, "users", k[0])
	assert.Equal(t, "42", k[1].(interface{ String() string }).String())
	assert.Equal(t, true, k[2])
	assert.Nil(t, k[3])

	again, err := Encode(k)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestNormalize(t *testing.T) {
	cases := map[Canonical]Key{
		`["a", 1.0]`:                   K("a", 1),
		`[ "users" , 42 , "profile" ]`: K("users", 42, "profile"),
		`[{"b":[1.50],"a":null}]`:      K(map[string]any{"a": nil, "b": []any{1.5}}),
		`[18446744073709551615]`:       K(uint64(math.MaxUint64)),
		`[-9007199254740993]`:          K(int64(-9007199254740993)),
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, MustEncode(want), got, in)
	}

	c := MustEncode(K("x", 1.25, map[string]any{"k": []any{true}}))
	again, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, c, again, "encoded keys are already normal")

	_, err = Normalize(`{"not":"a key"}`)
	assert.Error(t, err)
}
