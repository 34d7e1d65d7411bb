package arena

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestNewArenaIsZeroInitialized(t *testing.T) {
	a := NewArena()
	require.Equal(t, uintptr(0), a.TotalBytes())
	require.Equal(t, 0, a.NumBlocks())
}

func TestAllocGrowsFirstBlockAndZeroes(t *testing.T) {
	a := NewArena()
	p := (*[64]byte)(a.Alloc(64, 1))
	for _, b := range p {
		require.Zero(t, b)
	}
	require.Equal(t, 1, a.NumBlocks())
}

func TestAllocNoInitDoesNotZero(t *testing.T) {
	a := NewArena()
	p := a.AllocNoInit(8, 1)
	bs := unsafe.Slice((*byte)(p), 8)
	for i := range bs {
		bs[i] = 0xAA
	}
	require.Equal(t, byte(0xAA), bs[0])
}

func TestBlockSizesArePowerOfTwo(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	a.Alloc(1, 1)
	require.Equal(t, uintptr(64), uintptr(len(a.cur.buf)))

	for i := 0; i < 3; i++ {
		a.StartNewBlock(0) // bypasses the growth policy: starts a 1-byte block
		a.Alloc(1, 1)
	}
	// The chain now holds the first 64-byte block and three 1-byte blocks.
	sizes := make([]uintptr, 0, 4)
	for b := a.cur; b != nil; b = b.prev {
		sizes = append(sizes, uintptr(len(b.buf)))
	}
	for _, s := range sizes {
		require.True(t, s&(s-1) == 0, "block size %d is not a power of two", s)
	}
}

func TestTryResizeOnlySucceedsForLastAllocation(t *testing.T) {
	a := NewArena()
	p1 := a.AllocNoInit(16, 1)
	p2 := a.AllocNoInit(16, 1)

	require.False(t, a.TryResize(p1, 32), "resizing a non-last allocation must fail")
	require.True(t, a.TryResize(p2, 32), "resizing the last allocation should succeed if room remains")
}

func TestTryResizeFailsWhenBlockIsFull(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	p := a.AllocNoInit(64, 1)
	require.False(t, a.TryResize(p, 65))
}

func TestClearKeepsMostRecentBlock(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	a.Alloc(1, 1)
	a.StartNewBlock(128)
	require.Equal(t, 2, a.NumBlocks())

	a.Clear()
	require.Equal(t, 1, a.NumBlocks())
}

func TestFreeDropsEveryBlockButKeepsEstimates(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	a.Alloc(200, 1)
	require.True(t, a.NumBlocks() > 0)

	highBefore := a.SizeEstimateHigh()
	a.Free()

	require.Equal(t, 0, a.NumBlocks())
	require.Equal(t, uintptr(0), a.TotalBytes())
	require.Equal(t, highBefore+200, a.SizeEstimateHigh(), "Free must fold the final block's usage into the high-water estimate, not reset it")
}

func TestFreeThenReallocAnticipatesPriorSize(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	a.Alloc(500, 1)
	a.Free()

	a.Alloc(1, 1)
	require.GreaterOrEqual(t, uintptr(len(a.cur.buf)), uintptr(500), "fresh block should anticipate the arena's prior high-water mark")
}

func TestWithMinBlockSizeRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		var me *MisuseError
		require.True(t, errors.As(r.(error), &me))
		require.Equal(t, MisuseBadAlignment, me.Kind)
	}()
	NewArena(WithMinBlockSize(100))
}

func TestOOMHandlerInvokedBeforePanic(t *testing.T) {
	var got uintptr = 1
	a := NewArena(WithMinBlockSize(64), WithOOMHandler(func(requested uintptr) {
		got = requested
	}))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var oe *OOMError
		require.True(t, errors.As(r.(error), &oe))
		require.Equal(t, got, oe.Requested)
	}()

	// A request whose next power of two would overflow uintptr arithmetic
	// is treated as OOM.
	a.PreAlloc(uintptr(1)<<63+1, 1)
}

func TestWithHashKeySkipsLazySeeding(t *testing.T) {
	a := NewArena(WithHashKey(0xdeadbeef))
	require.Equal(t, uint64(0xdeadbeef), a.ensureHashKey())
}

func TestWithRandSourceMakesHashKeyDeterministic(t *testing.T) {
	a := NewArena(WithRandSource(func() uint64 { return 42 }))
	require.Equal(t, uint64(42), a.ensureHashKey())
}
