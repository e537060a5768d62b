// Package digest provides the message digests used across the library and a
// registry for selecting one by name, the way the RHX key schedule selects
// its HKDF engine.
package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	cex "github.com/GGCDMBit/CEX"
)

// Kind enumerates the digests that can power the RHX key schedule and the
// PBKDF2 and HKDF generators.
type Kind uint8

const (
	// SHA256 is SHA-2 256 (crypto/sha256).
	SHA256 Kind = iota + 1
	// SHA512 is SHA-2 512 (crypto/sha512), the default RHX KDF engine.
	SHA512
	// Blake2B512 is BLAKE2b with a 64-byte digest.
	Blake2B512
	// Blake3 is BLAKE3 with a 32-byte digest.
	Blake3
	// Keccak is this library's Keccak-256 (see the Keccak256 type).
	Keccak
)

func (k Kind) String() string {
	switch k {
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	case Blake2B512:
		return "Blake2B512"
	case Blake3:
		return "Blake3"
	case Keccak:
		return "Keccak256"
	default:
		return "unknown"
	}
}

// New returns a fresh instance of the digest.
func (k Kind) New() (hash.Hash, error) {
	switch k {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case Blake2B512:
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, cex.NewError(cex.ErrInternalState, "Digest", "blake2b construction failed")
		}
		return h, nil
	case Blake3:
		return blake3.New(), nil
	case Keccak:
		return NewKeccak256(), nil
	default:
		return nil, cex.NewError(cex.ErrUnknownDigest, "Digest", k.String())
	}
}

// Size returns the digest output length in bytes.
func (k Kind) Size() int {
	switch k {
	case SHA256, Blake3, Keccak:
		return 32
	case SHA512, Blake2B512:
		return 64
	default:
		return 0
	}
}

// BlockSize returns the digest input block (state) size in bytes. For the
// HKDF key schedule this is the salt granularity S in the legal key formula
// H + n*S.
func (k Kind) BlockSize() int {
	switch k {
	case SHA256:
		return 64
	case SHA512, Blake2B512:
		return 128
	case Blake3:
		return 64
	case Keccak:
		return KeccakRate
	default:
		return 0
	}
}
