// Package chacha implements the ChaCha stream cipher with a selectable
// round count: any even number between 8 and 30, 20 by default.
//
// Keys are 16 or 32 bytes with the djb constants ("expand 16-byte k" /
// "expand 32-byte k"; a 16-byte key occupies both key rows). The IV is 8
// bytes and the 64-bit block counter sits at state words 12 and 13, so the
// keystream is seekable by block: large transforms split the counter range
// across concurrent workers with output identical to the serial path.
package chacha

import (
	"encoding/binary"

	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/internal/parallel"

	cex "github.com/GGCDMBit/CEX"
)

const (
	// BlockSize is the keystream block size in bytes.
	BlockSize = 64

	// IVSize is the nonce length in bytes.
	IVSize = 8

	// MinRounds, MaxRounds, and DefaultRounds bound the round count.
	MinRounds     = 8
	MaxRounds     = 30
	DefaultRounds = 20

	origin = "ChaCha"
)

var (
	sigma = [4]uint32{0x61707865, 0x3320646E, 0x79622D32, 0x6B206574} // "expand 32-byte k"
	tau   = [4]uint32{0x61707865, 0x3120646E, 0x79622D36, 0x6B206574} // "expand 16-byte k"
)

// Cipher is a ChaCha stream cipher instance.
//
// A Cipher is not safe for concurrent use by multiple callers; concurrency
// lives only inside a single Transform call.
type Cipher struct {
	state  [14]uint32 // constants, key, and nonce; the counter lives apart
	ctr    uint64
	rounds int

	ks   [BlockSize]byte // buffered keystream tail
	kpos int             // bytes of ks already consumed, BlockSize = empty

	profile     *parallel.Profile
	initialized bool
	destroyed   bool
}

// New returns a ChaCha cipher with the given round count; 0 selects the
// default of 20.
func New(rounds int) (*Cipher, error) {
	if rounds == 0 {
		rounds = DefaultRounds
	}
	if rounds < MinRounds || rounds > MaxRounds || rounds%2 != 0 {
		return nil, cex.NewError(cex.ErrInvalidRounds, origin, "rounds must be an even number between 8 and 30")
	}
	return &Cipher{
		rounds:  rounds,
		kpos:    BlockSize,
		profile: parallel.NewProfile(origin, BlockSize),
	}, nil
}

// Rounds returns the diffusion round count.
func (c *Cipher) Rounds() int { return c.rounds }

// LegalKeySizes returns the valid key lengths in bytes.
func (c *Cipher) LegalKeySizes() []int { return []int{16, 32} }

// IsParallel reports whether parallel keystream generation is enabled.
func (c *Cipher) IsParallel() bool { return c.profile.IsParallel() }

// SetParallel enables or disables parallel keystream generation.
func (c *Cipher) SetParallel(enabled bool) { c.profile.SetParallel(enabled) }

// ParallelBlockSize returns the input length that triggers the parallel
// path.
func (c *Cipher) ParallelBlockSize() int { return c.profile.BlockSize() }

// SetParallelMaxDegree sets the parallel worker count; zero selects
// automatically, one disables.
func (c *Cipher) SetParallelMaxDegree(degree int) error { return c.profile.SetMaxDegree(degree) }

// Initialize keys the cipher and resets the block counter. The key must be
// 16 or 32 bytes and the IV 8 bytes; both are copied into cipher state.
func (c *Cipher) Initialize(key, iv []byte) error {
	if c.destroyed {
		return cex.NewError(cex.ErrNotInitialized, origin, "initialize after destroy")
	}
	if len(iv) != IVSize {
		return cex.NewError(cex.ErrInvalidIv, origin, "iv must be 8 bytes")
	}

	switch len(key) {
	case 16:
		copy(c.state[:4], tau[:])
		for i := 0; i < 4; i++ {
			w := binary.LittleEndian.Uint32(key[4*i:])
			c.state[4+i] = w
			c.state[8+i] = w
		}
	case 32:
		copy(c.state[:4], sigma[:])
		for i := 0; i < 8; i++ {
			c.state[4+i] = binary.LittleEndian.Uint32(key[4*i:])
		}
	default:
		return cex.NewError(cex.ErrInvalidKey, origin, "key must be 16 or 32 bytes")
	}

	c.state[12] = binary.LittleEndian.Uint32(iv)
	c.state[13] = binary.LittleEndian.Uint32(iv[4:])
	c.ctr = 0
	c.kpos = BlockSize
	c.initialized = true
	return nil
}

// Transform XORs len(src) bytes of keystream into dst. Successive calls
// continue the keystream.
func (c *Cipher) Transform(dst, src []byte) error {
	if !c.initialized || c.destroyed {
		return cex.NewError(cex.ErrNotInitialized, origin, "transform before initialize")
	}
	if len(dst) < len(src) {
		return cex.NewError(cex.ErrBufferTooShort, origin, "output shorter than input")
	}

	off := 0

	// Drain the buffered keystream tail first.
	for c.kpos < BlockSize && off < len(src) {
		dst[off] = src[off] ^ c.ks[c.kpos]
		c.kpos++
		off++
	}

	remaining := len(src) - off
	if remaining >= c.profile.BlockSize() && c.profile.IsParallel() {
		n := c.transformParallel(dst[off:len(src)], src[off:])
		off += n
	}

	// Full blocks on the caller's task.
	for len(src)-off >= BlockSize {
		c.keystream(c.ks[:], c.ctr)
		c.ctr++
		mem.XORCopy(dst[off:off+BlockSize], src[off:off+BlockSize], c.ks[:])
		off += BlockSize
	}

	// Buffer a final keystream block for the partial tail.
	if off < len(src) {
		c.keystream(c.ks[:], c.ctr)
		c.ctr++
		c.kpos = 0
		for ; off < len(src); off++ {
			dst[off] = src[off] ^ c.ks[c.kpos]
			c.kpos++
		}
	}
	return nil
}

// transformParallel processes the largest worker-aligned run of full blocks
// by splitting the counter range into contiguous segments, and returns the
// number of bytes consumed.
func (c *Cipher) transformParallel(dst, src []byte) int {
	degree := c.profile.MaxDegree()
	blocksPer := len(src) / (degree * BlockSize)
	segLen := blocksPer * BlockSize
	if blocksPer == 0 {
		return 0
	}

	base := c.ctr
	parallel.For(degree, func(t int) {
		var ks [BlockSize]byte
		ctr := base + uint64(t*blocksPer)
		for b := 0; b < blocksPer; b++ {
			lo := t*segLen + b*BlockSize
			c.keystream(ks[:], ctr)
			ctr++
			mem.XORCopy(dst[lo:lo+BlockSize], src[lo:lo+BlockSize], ks[:])
		}
		mem.Wipe(ks[:])
	})

	c.ctr = base + uint64(degree*blocksPer)
	return degree * segLen
}

// Destroy zeroizes the key state. The instance must not be used afterwards.
func (c *Cipher) Destroy() {
	clear(c.state[:])
	mem.Wipe(c.ks[:])
	c.ctr = 0
	c.initialized = false
	c.destroyed = true
}

// keystream writes the 64-byte block for the given counter into out.
func (c *Cipher) keystream(out []byte, ctr uint64) {
	var x [16]uint32
	copy(x[:12], c.state[:12])
	x[12] = uint32(ctr)
	x[13] = uint32(ctr >> 32)
	x[14] = c.state[12]
	x[15] = c.state[13]
	w := x

	for n := 0; n < c.rounds/2; n++ {
		quarterRound(&w, 0, 4, 8, 12)
		quarterRound(&w, 1, 5, 9, 13)
		quarterRound(&w, 2, 6, 10, 14)
		quarterRound(&w, 3, 7, 11, 15)
		quarterRound(&w, 0, 5, 10, 15)
		quarterRound(&w, 1, 6, 11, 12)
		quarterRound(&w, 2, 7, 8, 13)
		quarterRound(&w, 3, 4, 9, 14)
	}

	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[4*i:], w[i]+x[i])
	}
}

func quarterRound(w *[16]uint32, a, b, c, d int) {
	w[a] += w[b]
	w[d] ^= w[a]
	w[d] = w[d]<<16 | w[d]>>16
	w[c] += w[d]
	w[b] ^= w[c]
	w[b] = w[b]<<12 | w[b]>>20
	w[a] += w[b]
	w[d] ^= w[a]
	w[d] = w[d]<<8 | w[d]>>24
	w[c] += w[d]
	w[b] ^= w[c]
	w[b] = w[b]<<7 | w[b]>>25
}
