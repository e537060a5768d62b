package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/sha3"

	cex "github.com/GGCDMBit/CEX"
)

// pattern returns n bytes of the sequence (i*mul + add) mod 256.
func pattern(n, mul, add int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*mul + add)
	}
	return b
}

func sum(t *testing.T, d *Keccak256, msg []byte) string {
	t.Helper()
	d.Reset()
	if _, err := d.Write(msg); err != nil {
		t.Fatal(err)
	}
	var out [KeccakSize]byte
	if _, err := d.Finalize(out[:]); err != nil {
		t.Fatal(err)
	}
	return hex.EncodeToString(out[:])
}

func TestSequentialVectors(t *testing.T) {
	vectors := []struct {
		name string
		msg  []byte
		want string
	}{
		{"empty", nil, "c5d2460186f7233c6d81824d2338fc3f1aff49ac357dd8c47bfad8045d85a470"},
		{"FF", []byte{0xFF}, "8b1a944cf13a9a1cf70534d361679dc10cdab2d224b7eec785c3e8e97fec8db9"},
		{"abc", []byte("abc"), "4e03657aea45a94f382b8457d93729983f2e191cc59b5fc9ec44f58fa12d6c45"},
		{"200 bytes", pattern(200, 11, 5), "46da5da1d6c033c2afdce3fd8a7e222b1056477d7b8620214f78c20dc054435b"},
	}

	d := NewKeccak256()
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			if got := sum(t, d, v.msg); got != v.want {
				t.Errorf("Keccak256(%s) = %s, want = %s", v.name, got, v.want)
			}
		})
	}
}

func TestFinalizationVariants(t *testing.T) {
	// The unmodified pre-NIST Keccak finalization matches the Keccak team
	// vectors.
	pure := NewKeccak256Finalization(FinalizeKeccak)
	if got, want := sum(t, pure, nil), "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"; got != want {
		t.Errorf("Keccak(empty) = %s, want = %s", got, want)
	}
	if got, want := sum(t, pure, []byte("abc")), "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"; got != want {
		t.Errorf("Keccak(abc) = %s, want = %s", got, want)
	}

	// FIPS-202 padding matches SHA3-256.
	fips := NewKeccak256Finalization(FinalizeSHA3)
	if got, want := sum(t, fips, nil), "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"; got != want {
		t.Errorf("SHA3(empty) = %s, want = %s", got, want)
	}
}

func TestAgainstReferenceImplementations(t *testing.T) {
	sizes := []int{0, 1, 64, 135, 136, 137, 271, 272, 273, 1000, 4096}

	for _, n := range sizes {
		msg := pattern(n, 3, 1)

		pure := NewKeccak256Finalization(FinalizeKeccak)
		ref := sha3.NewLegacyKeccak256()
		_, _ = ref.Write(msg)
		if got, want := sum(t, pure, msg), hex.EncodeToString(ref.Sum(nil)); got != want {
			t.Errorf("n=%d: Keccak = %s, reference = %s", n, got, want)
		}

		fips := NewKeccak256Finalization(FinalizeSHA3)
		ref2 := sha3.New256()
		_, _ = ref2.Write(msg)
		if got, want := sum(t, fips, msg), hex.EncodeToString(ref2.Sum(nil)); got != want {
			t.Errorf("n=%d: SHA3 = %s, reference = %s", n, got, want)
		}
	}
}

func TestSplitUpdates(t *testing.T) {
	msg := pattern(1000, 7, 3)
	d := NewKeccak256()
	want := sum(t, d, msg)

	for _, split := range []int{0, 1, 135, 136, 137, 500, 999, 1000} {
		d.Reset()
		_, _ = d.Write(msg[:split])
		_, _ = d.Write(msg[split:])
		var out [KeccakSize]byte
		_, _ = d.Finalize(out[:])
		if got := hex.EncodeToString(out[:]); got != want {
			t.Errorf("split at %d = %s, want = %s", split, got, want)
		}
	}
}

func TestSumDoesNotAdvanceState(t *testing.T) {
	d := NewKeccak256()
	_, _ = d.Write(pattern(300, 5, 1))

	a := d.Sum(nil)
	b := d.Sum(nil)
	if !bytes.Equal(a, b) {
		t.Error("Sum changed the underlying state")
	}

	_, _ = d.Write([]byte("more"))
	c := d.Sum(nil)
	if bytes.Equal(a, c) {
		t.Error("Write after Sum had no effect")
	}
}

func TestComputeMatchesIncremental(t *testing.T) {
	msg := pattern(777, 9, 2)
	d := NewKeccak256()

	var direct [KeccakSize]byte
	if _, err := d.Compute(direct[:], msg); err != nil {
		t.Fatal(err)
	}

	if got, want := sum(t, d, msg), hex.EncodeToString(direct[:]); got != want {
		t.Errorf("incremental = %s, Compute = %s", got, want)
	}
}

func TestTreeVectors(t *testing.T) {
	vectors := []struct {
		fanOut int
		size   int
		want   string
	}{
		{2, 0, "ec5e8688d71cf214b9eaab181f1bcde87689e1d3da5ab9820846a6959b391192"},
		{2, 1, "300618e1f1b06062c53129cf1aa7ec87cbaeb020237dc1ce20086d496baa09f3"},
		{2, 135, "fc917291be676cc591c2fa5310339598f72d1c41839bbc5592d49295c512e140"},
		{2, 136, "05f219cbc2739e4cb63ccb2c84c30dd3db500d4235fe9ed3acb5a9f61f30ea1b"},
		{2, 137, "04caf45f421a9b183e2b693904bd7f65867999b37d805b4b9ebb512940d64e26"},
		{2, 544, "922af62f306dded5d295598422c58332257c39230fe39bb6f892b7fce287e2a4"},
		{2, 1000, "c48c3beec9f082d636ccbae3dfef13aaa5ad23c09b045a6ed42f613ab88a1d05"},
		{4, 0, "a0da5cb086c9c979b07d2356dc805711e5f701e53360289947284b95d3f267f6"},
		{4, 1, "bce2480c4175ed4650e5faf663d667d41db611acb0b7fa11f9a7541a890145cd"},
		{4, 135, "84990373e42e4153d44e98c866ea7e7c0da94f13fb648ed758fae67c7000bfce"},
		{4, 136, "9438a57cab778604afd13a3a7c36074df7d92d3abf6ec7e7a5e885bd9f8337f7"},
		{4, 137, "e840864a8a9138ad1e1f59282863929e49b562b09d50b6d9c1823feab9d9ba5c"},
		{4, 544, "9cf7279f3a2150337896d2d85686b12594e66416bf85ebe803fe1e7ba69ba1b8"},
		{4, 1000, "b1fc785453bce0de440f4f38090b4889058918b9798b60650397f60e3a481e1e"},
	}

	for _, v := range vectors {
		t.Run(fmt.Sprintf("D=%d/n=%d", v.fanOut, v.size), func(t *testing.T) {
			d, err := NewKeccak256Tree(v.fanOut)
			if err != nil {
				t.Fatal(err)
			}
			msg := pattern(v.size, 13, v.fanOut)
			if got := sum(t, d, msg); got != v.want {
				t.Errorf("tree(D=%d, n=%d) = %s, want = %s", v.fanOut, v.size, got, v.want)
			}
		})
	}
}

func TestTreeSplitUpdates(t *testing.T) {
	msg := pattern(2000, 3, 9)
	d, err := NewKeccak256Tree(4)
	if err != nil {
		t.Fatal(err)
	}
	want := sum(t, d, msg)

	// Arbitrary update boundaries, including buffer-filling and bulk-stripe
	// crossings, must not change the result.
	for _, split := range []int{1, 135, 136, 543, 544, 545, 1088, 1999} {
		d.Reset()
		_, _ = d.Write(msg[:split])
		_, _ = d.Write(msg[split:])
		var out [KeccakSize]byte
		_, _ = d.Finalize(out[:])
		if got := hex.EncodeToString(out[:]); got != want {
			t.Errorf("split at %d = %s, want = %s", split, got, want)
		}
	}
}

func TestTreeDistinctFromSequential(t *testing.T) {
	msg := pattern(500, 3, 3)

	seq := sum(t, NewKeccak256(), msg)
	tree2, _ := NewKeccak256Tree(2)
	tree4, _ := NewKeccak256Tree(4)
	d2 := sum(t, tree2, msg)
	d4 := sum(t, tree4, msg)

	if seq == d2 || seq == d4 || d2 == d4 {
		t.Error("tree outputs must be domain-separated from each other and from sequential")
	}
}

func TestTreeFanOutValidation(t *testing.T) {
	for _, d := range []int{0, 1, 3, 5} {
		if _, err := NewKeccak256Tree(d); !errors.Is(err, cex.ErrInvalidDegree) {
			t.Errorf("NewKeccak256Tree(%d) = %v, want ErrInvalidDegree", d, err)
		}
	}
}

func TestFinalizeResetsState(t *testing.T) {
	d := NewKeccak256()
	msg := []byte("the state resets after finalize")

	first := sum(t, d, msg)
	_, _ = d.Write(msg)
	var out [KeccakSize]byte
	_, _ = d.Finalize(out[:])
	if got := hex.EncodeToString(out[:]); got != first {
		t.Errorf("second run = %s, want = %s", got, first)
	}
}

func TestDestroyedDigestFails(t *testing.T) {
	d := NewKeccak256()
	d.Destroy()

	if _, err := d.Write([]byte("x")); !errors.Is(err, cex.ErrNotInitialized) {
		t.Errorf("Write after Destroy = %v, want ErrNotInitialized", err)
	}
	var out [KeccakSize]byte
	if _, err := d.Finalize(out[:]); !errors.Is(err, cex.ErrNotInitialized) {
		t.Errorf("Finalize after Destroy = %v, want ErrNotInitialized", err)
	}
}

func TestShortOutputBuffer(t *testing.T) {
	d := NewKeccak256()
	var out [16]byte
	if _, err := d.Finalize(out[:]); !errors.Is(err, cex.ErrBufferTooShort) {
		t.Errorf("Finalize into 16 bytes = %v, want ErrBufferTooShort", err)
	}
}

func BenchmarkKeccak256(b *testing.B) {
	msg := make([]byte, 64*1024)
	d := NewKeccak256()
	var out [KeccakSize]byte
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		_, _ = d.Write(msg)
		_, _ = d.Finalize(out[:])
	}
}

func BenchmarkKeccak256Tree(b *testing.B) {
	msg := make([]byte, 64*1024)
	d, _ := NewKeccak256Tree(4)
	var out [KeccakSize]byte
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		_, _ = d.Write(msg)
		_, _ = d.Finalize(out[:])
	}
}
