// Package padding provides block padding as a byte-fill interface. Only
// zero padding is implemented.
package padding

import cex "github.com/GGCDMBit/CEX"

// ZeroPad fills the tail of a block with zero bytes.
type ZeroPad struct{}

// Name returns the padding scheme name.
func (ZeroPad) Name() string { return "ZeroPad" }

// AddPadding fills block from offset to its end with zeros and returns the
// number of bytes written.
func (ZeroPad) AddPadding(block []byte, offset int) (int, error) {
	if offset > len(block) {
		return 0, cex.NewError(cex.ErrBufferTooShort, "ZeroPad", "padding offset beyond the block length")
	}
	clear(block[offset:])
	return len(block) - offset, nil
}

// GetPaddingLength returns the number of trailing zero bytes in block.
func (ZeroPad) GetPaddingLength(block []byte) int {
	n := 0
	for i := len(block) - 1; i >= 0 && block[i] == 0; i-- {
		n++
	}
	return n
}
