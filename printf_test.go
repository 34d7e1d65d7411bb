package arena

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaPrintfFitsFirstTry(t *testing.T) {
	a := NewArena()
	p := a.Printf("%s=%d", "x", 7)
	require.Equal(t, "x=7", cStringGoString(p))
}

func TestArenaPrintfRetriesOnOverflow(t *testing.T) {
	a := NewArena(WithMinBlockSize(16), WithSmallStringFloor(1))
	long := strings.Repeat("y", 500)
	p := a.Printf("%s", long)
	require.Equal(t, long, cStringGoString(p))
}

func TestArenaPrintfTerminatesWithNull(t *testing.T) {
	a := NewArena()
	p := a.Printf("abc")
	bs := cStringBytes(p)
	require.Equal(t, "abc", string(bs))
}

func cStringGoString(p *byte) string {
	return string(cStringBytes(p))
}
