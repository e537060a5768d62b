// Package mem provides byte-slice helpers shared by the cipher and digest
// implementations.
package mem

import "runtime"

// XORBytes sets dst[i] ^= src[i] for each i.
func XORBytes(dst, src []byte) {
	for i, s := range src[:len(dst)] {
		dst[i] ^= s
	}
}

// XORCopy sets dst[i] = a[i] ^ b[i] for each i.
func XORCopy(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// SliceForAppend extends the input slice by n bytes. head is the full
// extended slice, while tail is the appended part. If the original slice has
// sufficient capacity no allocation is performed.
func SliceForAppend(in []byte, n int) (head, tail []byte) {
	if total := len(in) + n; cap(in) >= total {
		head = in[:total]
	} else {
		head = make([]byte, total)
		copy(head, in)
	}
	tail = head[len(in):]
	return head, tail
}

// Wipe overwrites b with zeros. The KeepAlive fence keeps the writes from
// being elided when b is about to go out of scope.
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// WipeWords overwrites w with zeros.
func WipeWords(w []uint32) {
	clear(w)
	runtime.KeepAlive(w)
}
