// Package mode implements block-cipher modes of operation: CFB and CBC.
//
// Both modes chain full-width blocks through a register seeded with the
// initialization vector. Encryption is strictly serial. Decryption is
// parallelizable: the register needed to decrypt block j is ciphertext
// block j-1, which can be read directly from the input, so the input splits
// into contiguous segments decrypted concurrently with byte-exact
// equivalence to the serial path.
//
// A mode is constructed either around a caller-supplied cipher (the caller
// keeps ownership and tears it down) or from a cipher type name (the mode
// owns the cipher and destroys it with itself).
//
// A mode instance is not safe for concurrent use by multiple callers;
// concurrency lives only inside a single Transform call.
package mode

import (
	"github.com/GGCDMBit/CEX/block/rhx"
	"github.com/GGCDMBit/CEX/internal/mem"
	"github.com/GGCDMBit/CEX/internal/parallel"

	cex "github.com/GGCDMBit/CEX"
)

// BlockCipher is the cipher surface consumed by the modes. An implementation
// must allow concurrent EncryptBlock/DecryptBlock calls on one initialized
// instance: the modes fan block transforms out across workers during
// parallel decryption.
type BlockCipher interface {
	BlockSize() int
	LegalKeySizes() []int
	Initialize(encrypting bool, key []byte) error
	EncryptBlock(dst, src []byte) error
	DecryptBlock(dst, src []byte) error
	Destroy()
}

// Direction selects the transform direction at Initialize.
type Direction uint8

const (
	// Encrypt initializes a mode for encryption.
	Encrypt Direction = iota + 1
	// Decrypt initializes a mode for decryption.
	Decrypt
)

// CipherKind enumerates the block ciphers an owning mode constructor can
// build.
type CipherKind uint8

const (
	// RHX is the RHX cipher on 16-byte blocks.
	RHX CipherKind = iota + 1
	// RHX256 is the RHX cipher on 32-byte blocks.
	RHX256
)

// newCipher builds the cipher for an owning constructor.
func newCipher(kind CipherKind, origin string) (BlockCipher, error) {
	switch kind {
	case RHX:
		return rhx.New(rhx.Block16)
	case RHX256:
		return rhx.New(rhx.Block32)
	default:
		return nil, cex.NewError(cex.ErrUnknownCipher, origin, "undefined block cipher type")
	}
}

// modeState carries the chaining state and configuration shared by CFB and
// CBC.
type modeState struct {
	origin    string
	cipher    BlockCipher
	owned     bool
	blockSize int

	register  []byte
	direction Direction

	profile     *parallel.Profile
	initialized bool
	destroyed   bool
}

func newModeState(origin string, cipher BlockCipher, owned bool) modeState {
	return modeState{
		origin:    origin,
		cipher:    cipher,
		owned:     owned,
		blockSize: cipher.BlockSize(),
		profile:   parallel.NewProfile(origin, cipher.BlockSize()),
	}
}

// BlockSize returns the block size of the underlying cipher in bytes.
func (m *modeState) BlockSize() int { return m.blockSize }

// Engine returns the underlying block cipher instance.
func (m *modeState) Engine() BlockCipher { return m.cipher }

// IsEncryption reports whether the mode was initialized for encryption.
func (m *modeState) IsEncryption() bool { return m.initialized && m.direction == Encrypt }

// IsInitialized reports whether the mode is ready to transform data.
func (m *modeState) IsInitialized() bool { return m.initialized }

// IsParallel reports whether parallel decryption is enabled.
func (m *modeState) IsParallel() bool { return m.profile.IsParallel() }

// SetParallel enables or disables parallel decryption.
func (m *modeState) SetParallel(enabled bool) { m.profile.SetParallel(enabled) }

// ParallelBlockSize returns the input length that triggers the parallel
// decryption path.
func (m *modeState) ParallelBlockSize() int { return m.profile.BlockSize() }

// SetParallelBlockSize overrides the parallel trigger size; it must be a
// multiple of ParallelMinimumSize.
func (m *modeState) SetParallelBlockSize(n int) error { return m.profile.SetBlockSize(n) }

// ParallelMinimumSize returns the smallest input that splits evenly across
// the parallel workers.
func (m *modeState) ParallelMinimumSize() int { return m.profile.MinimumSize() }

// ParallelMaxDegree returns the worker count used by parallel decryption.
func (m *modeState) ParallelMaxDegree() int { return m.profile.MaxDegree() }

// SetParallelMaxDegree sets the parallel worker count. Zero selects the
// degree automatically, one disables parallel processing; other values must
// be even and no greater than the processor count.
func (m *modeState) SetParallelMaxDegree(degree int) error {
	return m.profile.SetMaxDegree(degree)
}

// initialize validates the IV, initializes the cipher for direction d with
// cipherEncrypting, and seeds the register.
func (m *modeState) initialize(d Direction, key, iv []byte, cipherEncrypting bool) error {
	if m.destroyed {
		return cex.NewError(cex.ErrNotInitialized, m.origin, "initialize after destroy")
	}
	if d != Encrypt && d != Decrypt {
		return cex.NewError(cex.ErrInternalState, m.origin, "undefined direction")
	}
	if len(iv) != m.blockSize {
		return cex.NewError(cex.ErrInvalidIv, m.origin, "iv length must equal the cipher block size")
	}
	if err := m.cipher.Initialize(cipherEncrypting, key); err != nil {
		return err
	}

	mem.Wipe(m.register)
	m.register = append([]byte(nil), iv...)
	m.direction = d
	m.initialized = true
	return nil
}

// checkTransform validates a Transform call against the mode state machine
// and the buffer contract.
func (m *modeState) checkTransform(dst, src []byte) error {
	if !m.initialized || m.destroyed {
		return cex.NewError(cex.ErrNotInitialized, m.origin, "transform before initialize")
	}
	if len(dst) < len(src) {
		return cex.NewError(cex.ErrBufferTooShort, m.origin, "output shorter than input")
	}
	return nil
}

// useParallel reports whether a transform of n bytes takes the parallel
// decryption path.
func (m *modeState) useParallel(n int) bool {
	return m.direction == Decrypt && m.profile.IsParallel() && n >= m.profile.BlockSize()
}

// segmentIVs captures the initial register for each of degree contiguous
// decryption segments before any output is written: the current register
// for segment 0 and the final ciphertext block of segment t-1 for segment t.
// Copies are taken up front so workers never read a block another worker may
// already have overwritten in-place.
func (m *modeState) segmentIVs(src []byte, segLen, degree int) [][]byte {
	ivs := make([][]byte, degree)
	for t := 0; t < degree; t++ {
		iv := make([]byte, m.blockSize)
		if t == 0 {
			copy(iv, m.register)
		} else {
			copy(iv, src[t*segLen-m.blockSize:t*segLen])
		}
		ivs[t] = iv
	}
	return ivs
}

// destroy zeroizes the chaining state and, for owned ciphers, the cipher.
func (m *modeState) destroy() {
	if m.destroyed {
		return
	}
	if m.owned {
		m.cipher.Destroy()
	}
	mem.Wipe(m.register)
	m.register = nil
	m.initialized = false
	m.destroyed = true
}
