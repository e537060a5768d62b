// Package rhx implements RHX, a Rijndael cipher extended with an HKDF
// powered key schedule.
//
// On key sizes up to 64 bytes RHX runs a standard Rijndael configuration:
// the FIPS-197 key expansion with the round count fixed by the key and block
// width (10, 12, 14, or 22 rounds). On larger keys the round keys are
// instead produced by an HKDF byte generator over a selectable digest,
// which permits arbitrarily large keys and a caller-chosen diffusion round
// count, any even number between 10 and 38.
//
// Legal extended key sizes are H + n*S for the digest's output size H and
// block size S, n = 1..10. The leftmost H key bytes key the HMAC and the
// remainder is the salt; the generated byte stream is read as little-endian
// 32-bit words and packed into block-width subkeys.
//
// Block widths of 16 and 32 bytes are supported. With a 16-byte block and a
// standard key size, RHX is exactly AES.
package rhx

import (
	"encoding/binary"
	"hash"

	"github.com/GGCDMBit/CEX/digest"
	"github.com/GGCDMBit/CEX/hazmat/rijndael"
	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/kdf/hkdf"

	cex "github.com/GGCDMBit/CEX"
)

const (
	// Block16 and Block32 are the legal cipher block sizes in bytes.
	Block16 = 16
	Block32 = 32

	// MinRounds and MaxRounds bound the diffusion round count on the HKDF
	// key schedule path; DefaultRounds is used when a constructor is given 0.
	MinRounds     = 10
	MaxRounds     = 38
	DefaultRounds = 22

	// MaxStandardKey is the largest key handled by the standard FIPS-197
	// schedule; longer keys take the HKDF path.
	MaxStandardKey = 64

	// maxSaltBlocks bounds the extended key sizes: H + n*S for n = 1..10.
	maxSaltBlocks = 10

	origin = "RHX"
)

// kdfInfo is the fixed HKDF information string. Replacing it through
// SetDistributionCode creates a unique cipher distribution.
var kdfInfo = []byte("information string RHX version 1")

// Cipher is an RHX block cipher instance.
//
// After Initialize the round-key schedule is immutable; block transforms
// only read it, so a single initialized Cipher may serve concurrent
// transform workers inside one mode call.
type Cipher struct {
	blockSize int
	rounds    int // configured rounds for the HKDF path
	kdf       digest.Kind
	info      []byte

	encKeys []uint32
	decKeys []uint32

	effRounds   int // rounds materialized by Initialize
	encrypting  bool
	initialized bool
	destroyed   bool
}

// New returns an RHX cipher with the given block size, 22 rounds on the
// extended path, and SHA-512 as the KDF engine.
func New(blockSize int) (*Cipher, error) {
	return NewWithOptions(blockSize, DefaultRounds, digest.SHA512)
}

// NewWithOptions returns an RHX cipher with the given block size, extended
// round count, and KDF digest engine. A rounds value of 0 selects the
// default of 22. The round count applies to keys above 64 bytes; standard
// key sizes fix their own round count.
func NewWithOptions(blockSize, rounds int, kdfEngine digest.Kind) (*Cipher, error) {
	if blockSize != Block16 && blockSize != Block32 {
		return nil, cex.NewError(cex.ErrInvalidBlockSize, origin, "supported block sizes are 16 and 32 bytes")
	}
	if rounds == 0 {
		rounds = DefaultRounds
	}
	if rounds < MinRounds || rounds > MaxRounds || rounds%2 != 0 {
		return nil, cex.NewError(cex.ErrInvalidRounds, origin, "rounds must be an even number between 10 and 38")
	}
	if kdfEngine.Size() == 0 {
		return nil, cex.NewError(cex.ErrUnknownDigest, origin, kdfEngine.String())
	}

	return &Cipher{
		blockSize: blockSize,
		rounds:    rounds,
		kdf:       kdfEngine,
		info:      append([]byte(nil), kdfInfo...),
	}, nil
}

// BlockSize returns the cipher block size in bytes.
func (c *Cipher) BlockSize() int { return c.blockSize }

// Rounds returns the diffusion round count. Before Initialize this is the
// configured extended-path count; afterwards, the count in effect.
func (c *Cipher) Rounds() int {
	if c.initialized {
		return c.effRounds
	}
	return c.rounds
}

// KdfEngine returns the digest powering the extended key schedule.
func (c *Cipher) KdfEngine() digest.Kind { return c.kdf }

// LegalKeySizes returns the valid key lengths in bytes, in ascending order:
// the standard Rijndael sizes followed by the HKDF sizes H + n*S.
func (c *Cipher) LegalKeySizes() []int {
	sizes := []int{16, 24, 32, 64}
	h, s := c.kdf.Size(), c.kdf.BlockSize()
	for n := 1; n <= maxSaltBlocks; n++ {
		sizes = append(sizes, h+n*s)
	}
	return sizes
}

// LegalRounds returns the valid extended-path round counts.
func (c *Cipher) LegalRounds() []int {
	r := make([]int, 0, (MaxRounds-MinRounds)/2+1)
	for n := MinRounds; n <= MaxRounds; n += 2 {
		r = append(r, n)
	}
	return r
}

// SetDistributionCode replaces the HKDF information string, creating a
// unique distribution of the cipher. It must be called before Initialize;
// the code must be non-empty.
func (c *Cipher) SetDistributionCode(code []byte) error {
	if c.initialized {
		return cex.NewError(cex.ErrInternalState, origin, "distribution code change after initialize")
	}
	if len(code) == 0 {
		return cex.NewError(cex.ErrInvalidKey, origin, "empty distribution code")
	}
	c.info = append([]byte(nil), code...)
	return nil
}

// IsEncryption reports whether the cipher was initialized for encryption.
func (c *Cipher) IsEncryption() bool { return c.initialized && c.encrypting }

// IsInitialized reports whether the cipher is ready to transform data.
func (c *Cipher) IsInitialized() bool { return c.initialized }

// Initialize materializes the round-key schedule for the given direction.
// The key is read but not retained; callers may zeroize it afterwards.
func (c *Cipher) Initialize(encrypting bool, key []byte) error {
	if c.destroyed {
		return cex.NewError(cex.ErrNotInitialized, origin, "initialize after destroy")
	}

	var enc []uint32
	switch {
	case len(key) == 16 || len(key) == 24 || len(key) == 32 || len(key) == MaxStandardKey:
		c.effRounds = rijndael.StandardRounds(len(key), c.blockSize/4)
		enc = rijndael.ExpandKey(key, c.blockSize/4, c.effRounds)
	case c.legalExtendedKey(len(key)):
		c.effRounds = c.rounds
		var err error
		enc, err = c.secureExpand(key)
		if err != nil {
			return err
		}
	default:
		return cex.NewError(cex.ErrInvalidKey, origin, "key length is not a legal size")
	}

	c.wipeSchedules()
	c.encKeys = enc
	c.decKeys = nil
	if !encrypting {
		c.decKeys = rijndael.DecryptSchedule(enc, c.blockSize/4)
	}
	c.encrypting = encrypting
	c.initialized = true
	return nil
}

// legalExtendedKey reports whether n is H + k*S for k = 1..10.
func (c *Cipher) legalExtendedKey(n int) bool {
	h, s := c.kdf.Size(), c.kdf.BlockSize()
	if n <= h {
		return false
	}
	k := n - h
	return k%s == 0 && k/s >= 1 && k/s <= maxSaltBlocks
}

// secureExpand generates the round keys with the HKDF byte generator: the
// leftmost H key bytes are the HMAC key, the remainder the salt.
func (c *Cipher) secureExpand(key []byte) ([]uint32, error) {
	h := c.kdf.Size()
	ikm, salt := key[:h], key[h:]

	newHash := func() hash.Hash {
		d, _ := c.kdf.New()
		return d
	}
	g := hkdf.New(newHash, ikm, salt, c.info)
	defer g.Destroy()

	keyBytes := make([]byte, (c.effRounds+1)*c.blockSize)
	if err := g.Generate(keyBytes); err != nil {
		return nil, err
	}

	rk := make([]uint32, len(keyBytes)/4)
	for i := range rk {
		rk[i] = binary.LittleEndian.Uint32(keyBytes[4*i:])
	}
	mem.Wipe(keyBytes)
	return rk, nil
}

// EncryptBlock transforms one block from src into dst. The cipher must be
// initialized for encryption. dst and src may be the same slice.
func (c *Cipher) EncryptBlock(dst, src []byte) error {
	if !c.initialized || c.destroyed {
		return cex.NewError(cex.ErrNotInitialized, origin, "encrypt before initialize")
	}
	if !c.encrypting {
		return cex.NewError(cex.ErrNotInitialized, origin, "cipher is initialized for decryption")
	}
	if len(src) < c.blockSize || len(dst) < c.blockSize {
		return cex.NewError(cex.ErrBufferTooShort, origin, "block transform needs a full block")
	}
	rijndael.Encrypt(dst, src, c.encKeys, c.blockSize/4)
	return nil
}

// DecryptBlock transforms one block from src into dst. The cipher must be
// initialized for decryption. dst and src may be the same slice.
func (c *Cipher) DecryptBlock(dst, src []byte) error {
	if !c.initialized || c.destroyed {
		return cex.NewError(cex.ErrNotInitialized, origin, "decrypt before initialize")
	}
	if c.encrypting {
		return cex.NewError(cex.ErrNotInitialized, origin, "cipher is initialized for encryption")
	}
	if len(src) < c.blockSize || len(dst) < c.blockSize {
		return cex.NewError(cex.ErrBufferTooShort, origin, "block transform needs a full block")
	}
	rijndael.Decrypt(dst, src, c.decKeys, c.blockSize/4)
	return nil
}

// Transform transforms one block in the direction selected at Initialize.
func (c *Cipher) Transform(dst, src []byte) error {
	if c.initialized && !c.encrypting {
		return c.DecryptBlock(dst, src)
	}
	return c.EncryptBlock(dst, src)
}

// Destroy zeroizes the round-key schedules. The instance must not be used
// afterwards.
func (c *Cipher) Destroy() {
	c.wipeSchedules()
	mem.Wipe(c.info)
	c.initialized = false
	c.destroyed = true
}

func (c *Cipher) wipeSchedules() {
	mem.WipeWords(c.encKeys)
	mem.WipeWords(c.decKeys)
	c.encKeys = nil
	c.decKeys = nil
}
