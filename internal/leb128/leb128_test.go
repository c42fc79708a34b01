package leb128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInt32(t *testing.T) {
	for _, v := range []int32{-165675008, -624485, -16256, -4, -1, 0, 1, 4, 16256, 624485, 165675008, math.MaxInt32, math.MinInt32} {
		encoded := EncodeInt32(v)
		decoded, n, err := LoadInt32(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.EqualValues(t, len(encoded), n)
	}
}

func TestEncodeDecodeUint32(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16384, math.MaxUint32} {
		encoded := EncodeUint32(v)
		decoded, n, err := LoadUint32(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.EqualValues(t, len(encoded), n)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	for _, v := range []int64{-165675008, -1, 0, 1, math.MaxInt64, math.MinInt64} {
		encoded := EncodeInt64(v)
		decoded, n, err := LoadInt64(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.EqualValues(t, len(encoded), n)
	}
}

func TestLoadUint32TruncatedErrors(t *testing.T) {
	_, _, err := LoadUint32([]byte{0x80})
	require.Error(t, err)
}
