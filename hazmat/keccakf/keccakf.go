// Package keccakf implements the Keccak-f[1600] permutation: 24 rounds of
// theta, rho, pi, chi, and iota on a 5x5 array of 64-bit lanes, with the
// standard round constants and rotation offsets.
//
// The state is a flat [25]uint64 in lane order: lane (x, y) lives at index
// x + 5*y, matching the byte order in which a sponge absorbs rate blocks as
// little-endian 64-bit words.
package keccakf

import "math/bits"

// Rounds is the number of rounds applied by F1600.
const Rounds = 24

// rc holds the round constants for the iota step.
var rc = [Rounds]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088, 0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rot holds the rho rotation offsets, indexed [x][y].
var rot = [5][5]int{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 20, 39, 8, 14},
}

// F1600 applies the Keccak-f[1600] permutation to the state in place.
func F1600(a *[25]uint64) {
	var c, d [5]uint64
	var b [25]uint64

	for r := 0; r < Rounds; r++ {
		// theta
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			a[x] ^= d[x]
			a[x+5] ^= d[x]
			a[x+10] ^= d[x]
			a[x+15] ^= d[x]
			a[x+20] ^= d[x]
		}

		// rho and pi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				b[y+5*((2*x+3*y)%5)] = bits.RotateLeft64(a[x+5*y], rot[x][y])
			}
		}

		// chi
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x++ {
				a[x+y] = b[x+y] ^ (^b[(x+1)%5+y] & b[(x+2)%5+y])
			}
		}

		// iota
		a[0] ^= rc[r]
	}
}
