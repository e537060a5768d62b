package digest

import (
	"testing"

	"github.com/stretchr/testify/require"

	cex "github.com/GGCDMBit/CEX"
)

func TestKindRegistry(t *testing.T) {
	cases := []struct {
		kind      Kind
		size      int
		blockSize int
	}{
		{SHA256, 32, 64},
		{SHA512, 64, 128},
		{Blake2B512, 64, 128},
		{Blake3, 32, 64},
		{Keccak, 32, 136},
	}

	for _, tt := range cases {
		t.Run(tt.kind.String(), func(t *testing.T) {
			h, err := tt.kind.New()
			require.NoError(t, err)
			require.Equal(t, tt.size, h.Size())
			require.Equal(t, tt.size, tt.kind.Size())
			require.Equal(t, tt.blockSize, h.BlockSize())
			require.Equal(t, tt.blockSize, tt.kind.BlockSize())

			// One write/sum cycle through the hash.Hash surface.
			_, err = h.Write([]byte("registry"))
			require.NoError(t, err)
			require.Len(t, h.Sum(nil), tt.size)
		})
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := Kind(0xEE).New()
	require.ErrorIs(t, err, cex.ErrUnknownDigest)
	require.Equal(t, 0, Kind(0xEE).Size())
}
