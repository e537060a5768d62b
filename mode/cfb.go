// Cipher FeedBack mode.
//
// Encrypt: O_j = E_K(R); C_j = P_j ^ O_j; R <- C_j, with R seeded from the
// IV. Decrypt applies the same keystream derivation (the block cipher is
// always run forward) and refills the register with the input ciphertext,
// which is what makes segmented parallel decryption possible.
//
// Only the full-block register shift is implemented. A trailing partial
// block is XORed against the keystream of the current register without
// advancing it.

package mode

import (
	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/internal/parallel"
)

const cfbOrigin = "CFB"

// CFB implements the Cipher FeedBack mode.
type CFB struct {
	modeState
}

// NewCFB wraps a caller-owned block cipher in CFB mode. The caller remains
// responsible for destroying the cipher.
func NewCFB(cipher BlockCipher) *CFB {
	return &CFB{newModeState(cfbOrigin, cipher, false)}
}

// NewCFBCipher builds a CFB mode that owns a cipher of the given type.
// Destroy tears the cipher down with the mode.
func NewCFBCipher(kind CipherKind) (*CFB, error) {
	c, err := newCipher(kind, cfbOrigin)
	if err != nil {
		return nil, err
	}
	return &CFB{newModeState(cfbOrigin, c, true)}, nil
}

// Initialize prepares the mode for the given direction and resets the
// register to the IV. The IV length must equal the cipher block size. CFB
// runs the block cipher forward in both directions, so the underlying
// cipher is always initialized for encryption.
func (c *CFB) Initialize(d Direction, key, iv []byte) error {
	return c.initialize(d, key, iv, true)
}

// Transform processes len(src) bytes from src into dst in the direction
// selected at Initialize. Successive calls continue the chain. When
// initialized for decryption with parallel processing enabled, inputs of at
// least ParallelBlockSize bytes are decrypted by concurrent segments with
// output identical to the serial path.
func (c *CFB) Transform(dst, src []byte) error {
	if err := c.checkTransform(dst, src); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	if c.direction == Encrypt {
		return c.encrypt(dst, src)
	}
	if c.useParallel(len(src)) {
		return c.decryptParallel(dst, src)
	}
	return c.decryptSerial(dst, src, c.register)
}

// Destroy zeroizes the register and, for an owned cipher, the cipher. The
// instance must not be used afterwards.
func (c *CFB) Destroy() { c.destroy() }

func (c *CFB) encrypt(dst, src []byte) error {
	bs := c.blockSize
	o := make([]byte, bs)
	defer mem.Wipe(o)

	n := len(src) / bs * bs
	for off := 0; off < n; off += bs {
		if err := c.cipher.EncryptBlock(o, c.register); err != nil {
			return err
		}
		mem.XORCopy(dst[off:off+bs], src[off:off+bs], o)
		copy(c.register, dst[off:off+bs])
	}

	if rem := len(src) - n; rem > 0 {
		if err := c.cipher.EncryptBlock(o, c.register); err != nil {
			return err
		}
		mem.XORCopy(dst[n:len(src)], src[n:], o)
	}
	return nil
}

// decryptSerial decrypts src into dst chaining through reg. reg is advanced
// in place, so passing c.register continues the instance chain while a
// worker passes its private segment register.
func (c *CFB) decryptSerial(dst, src, reg []byte) error {
	bs := c.blockSize
	o := make([]byte, bs)
	defer mem.Wipe(o)

	n := len(src) / bs * bs
	for off := 0; off < n; off += bs {
		if err := c.cipher.EncryptBlock(o, reg); err != nil {
			return err
		}
		// The register refill must happen before the XOR so in-place
		// transforms do not clobber the ciphertext feedback.
		copy(reg, src[off:off+bs])
		mem.XORCopy(dst[off:off+bs], src[off:off+bs], o)
	}

	if rem := len(src) - n; rem > 0 {
		if err := c.cipher.EncryptBlock(o, reg); err != nil {
			return err
		}
		mem.XORCopy(dst[n:len(src)], src[n:], o)
	}
	return nil
}

// decryptParallel splits the block-aligned prefix of src into one contiguous
// segment per worker. Segment t's initial register is the last ciphertext
// block of segment t-1, read from the input; each worker then runs the
// serial recurrence over its own segment.
func (c *CFB) decryptParallel(dst, src []byte) error {
	bs := c.blockSize
	degree := c.profile.MaxDegree()
	segLen := len(src) / (degree * bs) * bs
	prc := segLen * degree

	// Capture the segment registers and the chain continuation before any
	// output lands: an in-place transform overwrites the ciphertext.
	ivs := c.segmentIVs(src, segLen, degree)
	next := append([]byte(nil), src[prc-bs:prc]...)

	errs := make([]error, degree)
	parallel.For(degree, func(t int) {
		lo, hi := t*segLen, (t+1)*segLen
		errs[t] = c.decryptSerial(dst[lo:hi], src[lo:hi], ivs[t])
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	copy(c.register, next)
	if prc < len(src) {
		return c.decryptSerial(dst[prc:len(src)], src[prc:], c.register)
	}
	return nil
}
