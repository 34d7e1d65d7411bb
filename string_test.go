package arena

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestStringCreateIsEmptyAndNullTerminated(t *testing.T) {
	a := NewArena()
	s := NewString(a, 8)
	require.Equal(t, 0, s.Len())
	require.Equal(t, byte(0), *s.Ptr())
}

func TestStringAppendGrowsAndKeepsContent(t *testing.T) {
	a := NewArena(WithMinBlockSize(64))
	s := NewString(a, 0)
	s.Append("hello, ")
	s.Append("world")
	require.Equal(t, "hello, world", s.String())
	require.Equal(t, byte(0), *(*byte)(unsafe.Add(unsafe.Pointer(s.Ptr()), s.Len())))
}

func TestStringAppendCStringHandlesNil(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.AppendCString(nil)
	require.Equal(t, "(null)", s.String())
}

func TestStringAppendCStringReadsContent(t *testing.T) {
	a := NewArena()
	src := NewString(a, 0)
	src.Append("payload")

	dst := NewString(a, 0)
	dst.AppendCString(src.Ptr())
	require.Equal(t, "payload", dst.String())
}

func TestStringSetLengthExtendsWithZeros(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.Append("ab")
	s.SetLength(5)
	require.Equal(t, 5, s.Len())
	require.Equal(t, []byte{'a', 'b', 0, 0, 0}, s.Bytes())
}

func TestStringSetLengthShrinksAndRetruncates(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.Append("abcdef")
	s.SetLength(3)
	require.Equal(t, "abc", s.String())
}

func TestStringWriteAtOverwritesAndFillsGap(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.WriteAt(3, []byte("xyz"))
	require.Equal(t, 6, s.Len())
	require.Equal(t, []byte{0, 0, 0, 'x', 'y', 'z'}, s.Bytes())
}

func TestStringWriteAtInPlaceOverwrite(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.Append("aaaaaa")
	s.WriteAt(2, []byte("BC"))
	require.Equal(t, "aaBCaa", s.String())
}

func TestStringCopyIsIndependent(t *testing.T) {
	a := NewArena()
	s := NewString(a, 0)
	s.Append("original")

	c := s.Copy(0)
	c.Append("-copy")

	require.Equal(t, "original", s.String())
	require.Equal(t, "original-copy", c.String())
}

func TestStringAppendFormatGrowsOnOverflow(t *testing.T) {
	a := NewArena(WithMinBlockSize(16), WithSmallStringFloor(1))
	s := NewString(a, 0)
	long := strings.Repeat("x", 200)
	n := s.AppendFormat("%s-%d", long, 7)
	require.Equal(t, len(long)+2, n)
	require.Equal(t, long+"-7", s.String())
}

func TestNewStringFormat(t *testing.T) {
	a := NewArena()
	s := NewStringFormat(a, "%s=%d", "count", 42)
	require.Equal(t, "count=42", s.String())
	require.Equal(t, s.Len(), s.Cap())
}

func TestStringCompactToBytesDropsHeaderWhenLastAlloc(t *testing.T) {
	a := NewArena()
	s := NewString(a, 64)
	s.Append("tiny")
	before := a.SizeInUse()

	p := s.CompactToBytes()
	require.Equal(t, byte('t'), *p)
	require.Less(t, a.SizeInUse(), before, "compacting the last allocation should shrink it in place")
}

func TestStringMagicCheckRejectsStaleHandle(t *testing.T) {
	a := NewArena()
	s := NewString(a, 4)
	stale := s
	a.AllocNoInit(8, 1) // becomes the arena's last allocation
	s.ResizeCapacity(100) // s is no longer the last allocation, so this must copy

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var me *MisuseError
		require.True(t, errors.As(r.(error), &me))
		require.Equal(t, MisuseBadMagic, me.Kind)
	}()
	_ = stale.Len()
}
