// Keccak-256: a sponge over Keccak-f[1600] with rate 136, in a sequential
// mode and a parallel fan-out tree mode.
//
// The sequential mode is the pre-NIST Keccak construction: multi-rate
// padding with domain byte 0x01, then a finalization that inverts lanes
// 1, 2, 8, 12, and 17 before extraction. The inversion is this library's
// historical finalization and is the default; FinalizeKeccak selects the
// unmodified Keccak team finalization and FinalizeSHA3 the FIPS-202 padding
// for interoperability with standard implementations.
//
// The fan-out tree runs D independent leaf sponges. Each leaf first absorbs
// a 136-byte parameter header carrying its node offset, domain-separating
// the leaves from each other and from the sequential mode. Input rate-blocks
// are striped round-robin across the leaves, leaves absorb concurrently, and
// a root sponge compresses the D chaining values. Output depends on D; the
// tree is a distinct mode, not a parallel evaluation of the sequential one.

package digest

import (
	"encoding/binary"

	"github.com/GGCDMBit/CEX/hazmat/keccakf"
	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/internal/parallel"

	cex "github.com/GGCDMBit/CEX"
)

const (
	// KeccakRate is the sponge rate in bytes for a 512-bit capacity.
	KeccakRate = 136

	// KeccakSize is the digest length in bytes.
	KeccakSize = 32

	keccakOrigin = "Keccak256"
)

// Finalization selects the sponge finalization behavior.
type Finalization uint8

const (
	// FinalizeLaneInvert pads with 0x01 and inverts lanes {1,2,8,12,17}
	// after the final permutation. This is the library's historical
	// finalization and the default.
	FinalizeLaneInvert Finalization = iota

	// FinalizeKeccak pads with 0x01 and extracts the state unmodified,
	// matching the Keccak team's pre-NIST test vectors.
	FinalizeKeccak

	// FinalizeSHA3 pads with 0x06 per FIPS-202, matching SHA3-256.
	FinalizeSHA3
)

// invertLanes are the state lanes complemented by FinalizeLaneInvert.
var invertLanes = [5]int{1, 2, 8, 12, 17}

// Keccak256 is an incremental Keccak-256 digest. It implements hash.Hash.
//
// A Keccak256 instance is not safe for concurrent use; in tree mode,
// concurrency lives inside a single Write or Finalize call.
type Keccak256 struct {
	leaves []state // one state in sequential mode, fanOut states in tree mode
	buf    []byte  // rate bytes, or fanOut*rate bytes in tree mode
	n      int     // buffered byte count, 0 <= n < len(buf)

	fanOut    int // 1 = sequential
	fin       Finalization
	destroyed bool
}

type state [25]uint64

// NewKeccak256 returns a sequential Keccak-256 digest with the default
// finalization.
func NewKeccak256() *Keccak256 {
	d, _ := newKeccak256(1, FinalizeLaneInvert)
	return d
}

// NewKeccak256Finalization returns a sequential Keccak-256 digest with the
// given finalization behavior.
func NewKeccak256Finalization(fin Finalization) *Keccak256 {
	d, _ := newKeccak256(1, fin)
	return d
}

// NewKeccak256Tree returns a fan-out tree Keccak-256 digest with the given
// degree. The degree must be an even number of at least 2.
func NewKeccak256Tree(fanOut int) (*Keccak256, error) {
	if fanOut < 2 || fanOut%2 != 0 {
		return nil, cex.NewError(cex.ErrInvalidDegree, keccakOrigin, "fan-out must be an even number of at least 2")
	}
	return newKeccak256(fanOut, FinalizeLaneInvert)
}

func newKeccak256(fanOut int, fin Finalization) (*Keccak256, error) {
	d := &Keccak256{
		leaves: make([]state, fanOut),
		buf:    make([]byte, fanOut*KeccakRate),
		fanOut: fanOut,
		fin:    fin,
	}
	d.Reset()
	return d, nil
}

// Size returns the digest length, 32.
func (d *Keccak256) Size() int { return KeccakSize }

// BlockSize returns the sponge rate, 136.
func (d *Keccak256) BlockSize() int { return KeccakRate }

// FanOut returns the tree degree, or 1 in sequential mode.
func (d *Keccak256) FanOut() int { return d.fanOut }

// Reset returns the digest to its initial state. Tree leaves re-absorb
// their parameter headers.
func (d *Keccak256) Reset() {
	clear(d.buf)
	d.n = 0
	for i := range d.leaves {
		d.leaves[i] = state{}
		if d.fanOut > 1 {
			p := KeccakParams{
				NodeOffset: uint32(i),
				Version:    1,
				FanOut:     uint32(d.fanOut),
				DigestSize: KeccakSize,
				LeafSize:   KeccakRate,
			}
			absorbBlock(&d.leaves[i], p.Bytes())
		}
	}
}

// Write absorbs p into the digest state.
func (d *Keccak256) Write(p []byte) (int, error) {
	if d.destroyed {
		return 0, cex.NewError(cex.ErrNotInitialized, keccakOrigin, "write after destroy")
	}
	n := len(p)

	if d.fanOut > 1 {
		d.writeTree(p)
		return n, nil
	}

	// Complete a buffered partial block first.
	if d.n > 0 {
		c := copy(d.buf[d.n:KeccakRate], p)
		d.n += c
		p = p[c:]
		if d.n == KeccakRate {
			absorbBlock(&d.leaves[0], d.buf[:KeccakRate])
			d.n = 0
		}
	}

	// Bulk blocks straight from p.
	for len(p) >= KeccakRate {
		absorbBlock(&d.leaves[0], p[:KeccakRate])
		p = p[KeccakRate:]
	}

	if len(p) > 0 {
		d.n = copy(d.buf, p)
	}
	return n, nil
}

// writeTree routes input across the leaves: rate-block i of the stream goes
// to leaf i mod fanOut. Full buffer rounds and bulk stripes dispatch one
// worker per leaf.
func (d *Keccak256) writeTree(p []byte) {
	stripe := d.fanOut * KeccakRate

	if d.n > 0 {
		c := copy(d.buf[d.n:], p)
		d.n += c
		p = p[c:]
		if d.n == stripe {
			d.absorbStripes(d.buf, 1)
			d.n = 0
		}
	}

	// Bulk stripes straight from p, without copying through the buffer.
	if rounds := len(p) / stripe; rounds > 0 {
		d.absorbStripes(p[:rounds*stripe], rounds)
		p = p[rounds*stripe:]
	}

	if len(p) > 0 {
		d.n = copy(d.buf, p)
	}
}

// absorbStripes absorbs rounds*fanOut rate-blocks from p, leaf i taking
// block i of every stripe. All leaves run concurrently.
func (d *Keccak256) absorbStripes(p []byte, rounds int) {
	stripe := d.fanOut * KeccakRate
	parallel.For(d.fanOut, func(i int) {
		off := i * KeccakRate
		for r := 0; r < rounds; r++ {
			absorbBlock(&d.leaves[i], p[r*stripe+off:r*stripe+off+KeccakRate])
		}
	})
}

// Finalize completes the digest, writes 32 bytes to dst, resets the state,
// and returns the number of bytes written.
func (d *Keccak256) Finalize(dst []byte) (int, error) {
	if d.destroyed {
		return 0, cex.NewError(cex.ErrNotInitialized, keccakOrigin, "finalize after destroy")
	}
	if len(dst) < KeccakSize {
		return 0, cex.NewError(cex.ErrBufferTooShort, keccakOrigin, "output shorter than the digest size")
	}

	d.digest(dst[:KeccakSize])
	d.Reset()
	return KeccakSize, nil
}

// Sum appends the current digest to b without changing the underlying state.
func (d *Keccak256) Sum(b []byte) []byte {
	c := d.clone()
	ret, out := mem.SliceForAppend(b, KeccakSize)
	c.digest(out)
	return ret
}

// Compute resets the digest, absorbs src, and finalizes into dst.
func (d *Keccak256) Compute(dst, src []byte) (int, error) {
	if d.destroyed {
		return 0, cex.NewError(cex.ErrNotInitialized, keccakOrigin, "compute after destroy")
	}
	d.Reset()
	_, _ = d.Write(src)
	return d.Finalize(dst)
}

// Destroy zeroizes the sponge states and message buffer. The instance must
// not be used afterwards.
func (d *Keccak256) Destroy() {
	for i := range d.leaves {
		wipeState(&d.leaves[i])
	}
	mem.Wipe(d.buf)
	d.n = 0
	d.destroyed = true
}

// digest writes the final 32 bytes into out (len(out) == KeccakSize) without
// resetting the receiver's long-lived configuration.
func (d *Keccak256) digest(out []byte) {
	if d.fanOut == 1 {
		s := d.leaves[0]
		finalizeState(&s, d.buf[:d.n], d.fin)
		extract(&s, out)
		wipeState(&s)
		return
	}

	// Finalize every leaf over its remaining buffered slot; leaves whose
	// slot is empty finalize over nothing. Runs one worker per leaf.
	cvs := make([]byte, d.fanOut*KeccakSize)
	parallel.For(d.fanOut, func(i int) {
		s := d.leaves[i]
		lo := min(i*KeccakRate, d.n)
		hi := min((i+1)*KeccakRate, d.n)
		slot := d.buf[lo:hi]
		if len(slot) == KeccakRate {
			absorbBlock(&s, slot)
			slot = nil
		}
		finalizeState(&s, slot, d.fin)
		extract(&s, cvs[i*KeccakSize:(i+1)*KeccakSize])
		wipeState(&s)
	})

	// Root: compress the chaining values with a fresh sequential sponge.
	var root state
	rem := cvs
	for len(rem) >= KeccakRate {
		absorbBlock(&root, rem[:KeccakRate])
		rem = rem[KeccakRate:]
	}
	finalizeState(&root, rem, d.fin)
	extract(&root, out)
	wipeState(&root)
	mem.Wipe(cvs)
}

func (d *Keccak256) clone() *Keccak256 {
	c := &Keccak256{
		leaves: make([]state, len(d.leaves)),
		buf:    make([]byte, len(d.buf)),
		n:      d.n,
		fanOut: d.fanOut,
		fin:    d.fin,
	}
	copy(c.leaves, d.leaves)
	copy(c.buf, d.buf)
	return c
}

// absorbBlock XORs one rate block into the state and permutes. len(block)
// must be KeccakRate.
func absorbBlock(s *state, block []byte) {
	for i := 0; i < KeccakRate/8; i++ {
		s[i] ^= binary.LittleEndian.Uint64(block[i*8:])
	}
	keccakf.F1600((*[25]uint64)(s))
}

// finalizeState absorbs the final partial block (len(tail) < KeccakRate)
// with padding, permutes, and applies the finalization tweak.
func finalizeState(s *state, tail []byte, fin Finalization) {
	var block [KeccakRate]byte
	copy(block[:], tail)
	if fin == FinalizeSHA3 {
		block[len(tail)] ^= 0x06
	} else {
		block[len(tail)] ^= 0x01
	}
	block[KeccakRate-1] ^= 0x80
	absorbBlock(s, block[:])

	if fin == FinalizeLaneInvert {
		for _, i := range invertLanes {
			s[i] = ^s[i]
		}
	}
}

// extract writes the first four lanes little-endian into out.
func extract(s *state, out []byte) {
	for i := 0; i < KeccakSize/8; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], s[i])
	}
}

func wipeState(s *state) {
	clear(s[:])
}
