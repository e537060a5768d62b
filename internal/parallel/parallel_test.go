package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	cex "github.com/GGCDMBit/CEX"
)

func TestForRunsAllIndices(t *testing.T) {
	var hits [8]atomic.Int32
	For(len(hits), func(i int) {
		hits[i].Add(1)
	})
	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Errorf("index %d ran %d times, want 1", i, got)
		}
	}
}

func TestProfileDefaults(t *testing.T) {
	p := NewProfile("test", 16)

	if p.IsParallel() != (runtime.NumCPU() >= 2) {
		t.Errorf("IsParallel() = %v on %d cores", p.IsParallel(), runtime.NumCPU())
	}
	if !p.IsParallel() {
		t.Skip("remaining checks need the parallel path")
	}

	if d := p.MaxDegree(); d%2 != 0 || d < 2 || d > runtime.NumCPU() {
		t.Errorf("MaxDegree() = %d, want even in [2, %d]", d, runtime.NumCPU())
	}
	if p.MinimumSize() != p.MaxDegree()*16 {
		t.Errorf("MinimumSize() = %d, want %d", p.MinimumSize(), p.MaxDegree()*16)
	}
	if p.BlockSize()%p.MinimumSize() != 0 {
		t.Errorf("BlockSize() = %d is not a multiple of MinimumSize() = %d", p.BlockSize(), p.MinimumSize())
	}
}

func TestSetMaxDegree(t *testing.T) {
	p := NewProfile("test", 16)

	if err := p.SetMaxDegree(3); !errors.Is(err, cex.ErrInvalidDegree) {
		t.Errorf("SetMaxDegree(3) = %v, want ErrInvalidDegree", err)
	}
	if err := p.SetMaxDegree(runtime.NumCPU()*2 + 2); !errors.Is(err, cex.ErrInvalidDegree) {
		t.Errorf("oversized degree = %v, want ErrInvalidDegree", err)
	}

	if err := p.SetMaxDegree(1); err != nil {
		t.Fatalf("SetMaxDegree(1) = %v", err)
	}
	if p.IsParallel() {
		t.Error("degree 1 must disable the parallel path")
	}

	if err := p.SetMaxDegree(0); err != nil {
		t.Fatalf("SetMaxDegree(0) = %v", err)
	}

	if runtime.NumCPU() >= 2 {
		if err := p.SetMaxDegree(2); err != nil {
			t.Fatalf("SetMaxDegree(2) = %v", err)
		}
		if p.MaxDegree() != 2 || !p.IsParallel() {
			t.Error("degree 2 not applied")
		}
	}
}

func TestSetBlockSize(t *testing.T) {
	p := NewProfile("test", 16)

	if err := p.SetBlockSize(p.MinimumSize() + 1); !errors.Is(err, cex.ErrInvalidDegree) {
		t.Errorf("unaligned block size = %v, want ErrInvalidDegree", err)
	}
	if err := p.SetBlockSize(0); !errors.Is(err, cex.ErrInvalidDegree) {
		t.Errorf("zero block size = %v, want ErrInvalidDegree", err)
	}

	n := p.MinimumSize() * 4
	if err := p.SetBlockSize(n); err != nil {
		t.Fatalf("SetBlockSize(%d) = %v", n, err)
	}
	if p.BlockSize() != n {
		t.Errorf("BlockSize() = %d, want %d", p.BlockSize(), n)
	}
}
