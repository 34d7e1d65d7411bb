package arena

import "unsafe"

// SizeInUse returns the number of bytes folded into already-finalized
// blocks plus whatever has been bumped out of the current block. It is an
// estimate in the same sense sizeEstimate is: alignment padding recorded at
// block boundaries is folded in, not tracked byte-exact.
func (a *Arena) SizeInUse() uintptr {
	used := a.sizeEstimate
	if a.cur != nil {
		used += uintptr(a.free) - uintptr(unsafe.Pointer(&a.cur.buf[0]))
	}
	return used
}

// NumBlocks returns the number of blocks currently in the arena's chain.
func (a *Arena) NumBlocks() int {
	n := 0
	for b := a.cur; b != nil; b = b.prev {
		n++
	}
	return n
}

// Capacity returns the total capacity in bytes of every block the arena
// currently holds, equivalent to TotalBytes.
func (a *Arena) Capacity() uintptr {
	return a.TotalBytes()
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to
// 1.0). Returns 0 if the arena has no capacity yet.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:        a.SizeInUse(),
		Capacity:         a.Capacity(),
		NumBlocks:        a.NumBlocks(),
		SizeEstimateHigh: a.sizeEstimateHigh,
		Utilization:      a.Utilization(),
	}
}

// ArenaMetrics contains a point-in-time snapshot of an arena's memory usage.
type ArenaMetrics struct {
	SizeInUse        uintptr
	Capacity         uintptr
	NumBlocks        int
	SizeEstimateHigh uintptr
	Utilization      float64
}
