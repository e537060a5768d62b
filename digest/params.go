package digest

import "encoding/binary"

// KeccakParams is the tree-parameter block absorbed by each leaf of a
// fan-out Keccak-256 before any message input. NodeOffset carries the leaf
// index and is the per-leaf domain separator; the other fields bind the
// digest geometry.
type KeccakParams struct {
	NodeOffset uint32
	Version    uint32
	FanOut     uint32
	DigestSize uint32
	LeafSize   uint32
}

// Bytes serializes the parameters into one rate-sized block: the five
// fields little-endian at offsets 0, 4, 8, 12, and 16, the remainder zero.
// The layout is part of the tree digest's wire format; changing it changes
// every tree output.
func (p KeccakParams) Bytes() []byte {
	b := make([]byte, KeccakRate)
	binary.LittleEndian.PutUint32(b[0:], p.NodeOffset)
	binary.LittleEndian.PutUint32(b[4:], p.Version)
	binary.LittleEndian.PutUint32(b[8:], p.FanOut)
	binary.LittleEndian.PutUint32(b[12:], p.DigestSize)
	binary.LittleEndian.PutUint32(b[16:], p.LeafSize)
	return b
}
