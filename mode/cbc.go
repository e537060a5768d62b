// Cipher Block Chaining mode.
//
// Encrypt: C_j = E_K(P_j ^ R); R <- C_j, with R seeded from the IV.
// Decrypt: P_j = D_K(C_j) ^ R; R <- C_j. Decryption depends only on the
// input ciphertext for its chaining, so it parallelizes with the same
// segment split as CFB.
//
// CBC operates on whole blocks; input lengths must be a multiple of the
// cipher block size (see the padding package).

package mode

import (
	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/internal/parallel"

	cex "github.com/GGCDMBit/CEX"
)

const cbcOrigin = "CBC"

// CBC implements the Cipher Block Chaining mode.
type CBC struct {
	modeState
}

// NewCBC wraps a caller-owned block cipher in CBC mode. The caller remains
// responsible for destroying the cipher.
func NewCBC(cipher BlockCipher) *CBC {
	return &CBC{newModeState(cbcOrigin, cipher, false)}
}

// NewCBCCipher builds a CBC mode that owns a cipher of the given type.
// Destroy tears the cipher down with the mode.
func NewCBCCipher(kind CipherKind) (*CBC, error) {
	c, err := newCipher(kind, cbcOrigin)
	if err != nil {
		return nil, err
	}
	return &CBC{newModeState(cbcOrigin, c, true)}, nil
}

// Initialize prepares the mode for the given direction and resets the
// register to the IV. The IV length must equal the cipher block size.
func (c *CBC) Initialize(d Direction, key, iv []byte) error {
	return c.initialize(d, key, iv, d == Encrypt)
}

// Transform processes len(src) bytes from src into dst in the direction
// selected at Initialize. The length must be a multiple of the block size.
// Successive calls continue the chain. When initialized for decryption with
// parallel processing enabled, inputs of at least ParallelBlockSize bytes
// are decrypted by concurrent segments with output identical to the serial
// path.
func (c *CBC) Transform(dst, src []byte) error {
	if err := c.checkTransform(dst, src); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	if len(src)%c.blockSize != 0 {
		return cex.NewError(cex.ErrBufferTooShort, cbcOrigin, "input length must be a multiple of the block size")
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
func (c *CBC) Destroy() { c.destroy() }

func (c *CBC) encrypt(dst, src []byte) error {
	bs := c.blockSize
	x := make([]byte, bs)
	defer mem.Wipe(x)

	for off := 0; off < len(src); off += bs {
		mem.XORCopy(x, src[off:off+bs], c.register)
		if err := c.cipher.EncryptBlock(dst[off:off+bs], x); err != nil {
			return err
		}
		copy(c.register, dst[off:off+bs])
	}
	return nil
}

// decryptSerial decrypts src into dst chaining through reg. reg is advanced
// in place, so passing c.register continues the instance chain while a
// worker passes its private segment register.
func (c *CBC) decryptSerial(dst, src, reg []byte) error {
	bs := c.blockSize
	cblk := make([]byte, bs)
	defer mem.Wipe(cblk)

	for off := 0; off < len(src); off += bs {
		// Save the ciphertext feedback before the output can land on it.
		copy(cblk, src[off:off+bs])
		if err := c.cipher.DecryptBlock(dst[off:off+bs], src[off:off+bs]); err != nil {
			return err
		}
		mem.XORBytes(dst[off:off+bs], reg)
		copy(reg, cblk)
	}
	return nil
}

// decryptParallel splits src into one contiguous segment per worker.
// Segment t's initial register is the last ciphertext block of segment t-1,
// read from the input; each worker then runs the serial recurrence over its
// own segment.
func (c *CBC) decryptParallel(dst, src []byte) error {
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
