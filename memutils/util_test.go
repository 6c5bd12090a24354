package memutils

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, uint64(0), AlignUp[uint64](0, 256))
	require.Equal(t, uint64(256), AlignUp[uint64](1, 256))
	require.Equal(t, uint64(256), AlignUp[uint64](256, 256))
	require.Equal(t, uint64(512), AlignUp[uint64](257, 256))
	require.Equal(t, 17, AlignUp(17, 1))
	require.Equal(t, 17, AlignUp(17, 0))
}

func TestAlignDown(t *testing.T) {
	require.Equal(t, uint64(0), AlignDown[uint64](255, 256))
	require.Equal(t, uint64(256), AlignDown[uint64](511, 256))
	require.True(t, IsAligned[uint64](4096, 256))
	require.False(t, IsAligned[uint64](4097, 256))
}

func TestCheckPow2(t *testing.T) {
	require.NoError(t, CheckPow2(256, "alignment"))
	require.NoError(t, CheckPow2(uint64(1), "alignment"))

	err := CheckPow2(96, "alignment")
	require.Error(t, err)
	require.True(t, errors.Is(err, PowerOfTwoError))
}

func TestLog2(t *testing.T) {
	require.Equal(t, uint(0), Log2(1))
	require.Equal(t, uint(8), Log2(uint64(256)))
	require.Equal(t, uint(12), Log2(4096))
}
