// Package pbkdf2 implements PBKDF2 as specified in RFC 2898, with an HMAC
// over a selectable digest as the pseudo-random function.
package pbkdf2

import (
	"crypto/hmac"
	"encoding/binary"
	"hash"
)

// DefaultIterations is the iteration count used when a caller passes 0.
const DefaultIterations = 1000

// Key derives keyLen bytes from the password and salt using the given
// iteration count over the digest h.
func Key(h func() hash.Hash, password, salt []byte, iterations, keyLen int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	prf := hmac.New(h, password)
	hashLen := prf.Size()
	numBlocks := (keyLen + hashLen - 1) / hashLen

	var ctr [4]byte
	dk := make([]byte, 0, numBlocks*hashLen)
	u := make([]byte, hashLen)

	for block := 1; block <= numBlocks; block++ {
		// U_1 = PRF(password, salt || INT_32_BE(block))
		prf.Reset()
		prf.Write(salt)
		binary.BigEndian.PutUint32(ctr[:], uint32(block))
		prf.Write(ctr[:])
		u = prf.Sum(u[:0])

		t := dk[len(dk) : len(dk)+hashLen]
		dk = dk[:len(dk)+hashLen]
		copy(t, u)

		// U_i = PRF(password, U_{i-1}); T = U_1 ^ ... ^ U_c
		for i := 2; i <= iterations; i++ {
			prf.Reset()
			prf.Write(u)
			u = prf.Sum(u[:0])
			for j, b := range u {
				t[j] ^= b
			}
		}
	}
	return dk[:keyLen]
}
