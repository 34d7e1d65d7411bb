package arena

import (
	"bytes"
	"unsafe"

	"github.com/dchest/siphash"
)

// hashBytes computes the arena's keyed hash of data, folded to 32 bits and
// clamped away from the two slot-table sentinel values (0 = empty slot,
// 1 = tombstone).
func hashBytes(a *Arena, data []byte) uint32 {
	key := a.ensureHashKey()
	k0, k1 := splitHashKey(key)
	h := siphash.Hash(k0, k1, data)
	out := uint32(h) ^ uint32(h>>32)
	if out < 2 {
		out += 2
	}
	return out
}

// hashCString hashes the contents of a null-terminated string without
// allocating an intermediate copy.
func hashCString(a *Arena, s *byte) uint32 {
	return hashBytes(a, cStringBytes(s))
}

// splitHashKey derives the two 64-bit SipHash key halves from the arena's
// single 64-bit hash key with a fixed, cheap finalizer, rather than
// spending a second call into the random source.
func splitHashKey(key uint64) (k0, k1 uint64) {
	k0 = key ^ 0x9e3779b97f4a7c15
	k1 = key*0xff51afd7ed558ccd + 1
	return k0, k1
}

// cStringBytes returns the bytes of a null-terminated string, not including
// the terminator. A nil pointer yields a nil slice.
func cStringBytes(s *byte) []byte {
	if s == nil {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(s), n)) != 0 {
		n++
	}
	return unsafe.Slice(s, n)
}

// cStringEqual compares two null-terminated strings by content. Either may
// be nil; two nil pointers are equal, a nil and non-nil are not.
func cStringEqual(a, b *byte) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(cStringBytes(a), cStringBytes(b))
}
