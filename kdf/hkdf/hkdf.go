// Package hkdf implements the keyed byte generator that powers the RHX
// extended key schedule: counter-mode expansion of an HMAC over a selectable
// digest.
//
// Each output block is HMAC(ikm, salt || info || ctr) for a one-byte counter
// starting at 1; blocks are concatenated until the requested length is
// reached. The generator produces at most 255 blocks per initialization.
package hkdf

import (
	"crypto/hmac"
	"hash"

	"github.com/GGCDMBit/CEX/internal/mem"

	cex "github.com/GGCDMBit/CEX"
)

const origin = "HKDF"

// Generator is an incremental HKDF byte generator.
type Generator struct {
	mac  hash.Hash
	salt []byte
	info []byte

	block []byte // current output block
	used  int    // bytes of block already read
	ctr   byte
}

// New returns a generator keyed with ikm over the digest h. The salt and
// info values are defensively copied.
func New(h func() hash.Hash, ikm, salt, info []byte) *Generator {
	g := &Generator{
		mac:  hmac.New(h, ikm),
		salt: append([]byte(nil), salt...),
		info: append([]byte(nil), info...),
	}
	g.block = make([]byte, 0, g.mac.Size())
	g.used = 0
	return g
}

// Read fills p with generator output.
func (g *Generator) Read(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if g.used == len(g.block) {
			if err := g.next(); err != nil {
				return n - len(p), err
			}
		}
		c := copy(p, g.block[g.used:])
		g.used += c
		p = p[c:]
	}
	return n, nil
}

// Generate fills out with generator output, failing instead of returning a
// short count.
func (g *Generator) Generate(out []byte) error {
	_, err := g.Read(out)
	return err
}

// next computes the block for the next counter value.
func (g *Generator) next() error {
	if g.ctr == 0xFF {
		return cex.NewError(cex.ErrInternalState, origin, "output limit reached")
	}
	g.ctr++

	g.mac.Reset()
	g.mac.Write(g.salt)
	g.mac.Write(g.info)
	g.mac.Write([]byte{g.ctr})
	g.block = g.mac.Sum(g.block[:0])
	g.used = 0
	return nil
}

// Destroy zeroizes the generator's buffered output and inputs.
func (g *Generator) Destroy() {
	g.mac.Reset()
	mem.Wipe(g.salt)
	mem.Wipe(g.info)
	mem.Wipe(g.block[:cap(g.block)])
	g.block = nil
	g.ctr = 0xFF
}
