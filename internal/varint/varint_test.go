package varint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAcrossTiers(t *testing.T) {
	tests := []struct {
		value  uint64
		length int
	}{
		{0, 1},
		{240, 1},
		{241, 2},
		{2287, 2},
		{2288, 3},
		{67823, 3},
		{67824, 4},
		{1<<24 - 1, 4},
		{1 << 24, 5},
		{1 << 32, 6},
		{1 << 40, 7},
		{1 << 48, 8},
		{1 << 56, 9},
		{math.MaxUint64, 9},
	}

	for _, tt := range tests {
		encoded := Encode(tt.value)
		require.Len(t, encoded, tt.length, "Encode(%d)", tt.value)
		assert.Equal(t, tt.length, Len(tt.value), "Len(%d)", tt.value)

		got, n, err := Decode(encoded)
		require.NoError(t, err, "Decode(%x)", encoded)
		assert.Equal(t, tt.value, got)
		assert.Equal(t, tt.length, n)
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	assert.Equal(t, []byte{0x00}, Encode(0))
	assert.Equal(t, []byte{0xf0}, Encode(240))
	assert.Equal(t, []byte{0xf1, 0x01}, Encode(241))
	assert.Equal(t, []byte{0xf8, 0xff}, Encode(2287))
	assert.Equal(t, []byte{0xf9, 0x00, 0x00}, Encode(2288))
	assert.Equal(t, []byte{0xfa, 0x01, 0x08, 0xf0}, Encode(67824))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, Encode(math.MaxUint64))
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"two byte prefix only", []byte{0xf1}},
		{"three byte tier short", []byte{0xf9, 0x01}},
		{"fixed width short", []byte{0xfb, 0x01, 0x02}},
		{"nine byte short", []byte{0xff, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.buf)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	v, n, err := Decode([]byte{0x05, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	assert.Equal(t, 1, n)
}

func TestAppendChainsAndDecodeAll(t *testing.T) {
	var id []byte
	values := []uint64{1, 0, 300, 70000, 1 << 33}
	for _, v := range values {
		id = Append(id, v)
	}

	got, err := decodeAll(id)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = decodeAll(append(id, 0xfa))
	assert.ErrorIs(t, err, ErrMalformedInput)
}
