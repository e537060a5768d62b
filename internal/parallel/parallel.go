// Package parallel provides the fork-join primitive and the parallel profile
// used by the cipher modes and the tree digest.
//
// A Profile describes how a component partitions work: the maximum worker
// degree, the minimum input that can be split evenly, and the input size at
// which a transform switches to the parallel path. Profiles are computed once
// from the host processor topology and are effectively immutable afterwards;
// the only mutations happen through SetMaxDegree, SetBlockSize, and
// SetParallel before a transform runs.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"

	cex "github.com/GGCDMBit/CEX"
)

// For runs fn(0) .. fn(n-1) on independent goroutines and blocks until all
// have returned. Workers receive disjoint output ranges from the caller;
// no ordering is observable between them.
func For(n int, fn func(i int)) {
	if n == 1 {
		fn(0)
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// defaultL1 is used when the processor does not report its L1 data cache.
const defaultL1 = 32 * 1024

// l1DataCache returns the per-core L1 data cache size in bytes.
func l1DataCache() int {
	if c := cpuid.CPU.Cache.L1D; c > 0 {
		return c
	}
	return defaultL1
}

// autoDegree returns the largest even worker count not exceeding the
// processor count, or 0 when the host cannot support parallel processing.
func autoDegree() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 0
	}
	return n - n%2
}

// Profile holds the parallel processing parameters for one component
// instance.
type Profile struct {
	origin    string
	unitSize  int // cipher block or digest rate in bytes
	maxDegree int
	blockSize int // parallel trigger size in bytes
	enabled   bool
}

// NewProfile builds a profile for a component working in unitSize-byte
// blocks. The degree defaults to the automatic selection and the parallel
// block size targets the per-core L1 data cache.
func NewProfile(origin string, unitSize int) *Profile {
	p := &Profile{origin: origin, unitSize: unitSize}
	p.maxDegree = autoDegree()
	p.enabled = p.maxDegree >= 2
	p.blockSize = p.defaultBlockSize()
	return p
}

// defaultBlockSize targets one L1 data cache per worker, rounded down to a
// multiple of MinimumSize.
func (p *Profile) defaultBlockSize() int {
	if p.maxDegree < 2 {
		return 0
	}
	target := p.maxDegree * l1DataCache()
	return target - target%p.MinimumSize()
}

// IsParallel reports whether the parallel path is available and enabled.
func (p *Profile) IsParallel() bool {
	return p.enabled && p.maxDegree >= 2
}

// SetParallel enables or disables the parallel path. Enabling has no effect
// when the processor count cannot support at least two workers.
func (p *Profile) SetParallel(enabled bool) {
	p.enabled = enabled && p.maxDegree >= 2
}

// MaxDegree returns the worker count used by the parallel path.
func (p *Profile) MaxDegree() int {
	return p.maxDegree
}

// MinimumSize returns the smallest input length that splits evenly across
// the workers: degree * unit size.
func (p *Profile) MinimumSize() int {
	if p.maxDegree < 2 {
		return p.unitSize
	}
	return p.maxDegree * p.unitSize
}

// BlockSize returns the input length at which a transform engages the
// parallel path.
func (p *Profile) BlockSize() int {
	return p.blockSize
}

// SetBlockSize overrides the parallel trigger size. The size must be a
// positive multiple of MinimumSize.
func (p *Profile) SetBlockSize(n int) error {
	if n <= 0 || n%p.MinimumSize() != 0 {
		return cex.NewError(cex.ErrInvalidDegree, p.origin, "parallel block size must be a multiple of the parallel minimum size")
	}
	p.blockSize = n
	return nil
}

// SetMaxDegree sets the number of workers allocated by the parallel path.
// Zero selects the degree automatically and one disables parallel
// processing. Any other value must be an even number no greater than the
// processor count.
func (p *Profile) SetMaxDegree(degree int) error {
	switch {
	case degree == 0:
		p.maxDegree = autoDegree()
		p.enabled = p.maxDegree >= 2
	case degree == 1:
		p.enabled = false
	case degree < 0 || degree%2 != 0:
		return cex.NewError(cex.ErrInvalidDegree, p.origin, "degree must be an even number")
	case degree > runtime.NumCPU():
		return cex.NewError(cex.ErrInvalidDegree, p.origin, "degree exceeds the processor count")
	default:
		p.maxDegree = degree
		p.enabled = true
	}
	p.blockSize = p.defaultBlockSize()
	return nil
}
