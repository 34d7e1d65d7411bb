package arena

import "unsafe"

// Alloc returns a pointer to a T stored inside the arena with zeroed memory.
// The returned pointer is valid as long as the arena hasn't been Free'd.
func Alloc[T any](a *Arena) *T {
	var zero T
	return (*T)(a.Alloc(unsafe.Sizeof(zero), unsafe.Alignof(zero)))
}

// AllocZeroed is identical to Alloc - provided for API consistency with
// AllocUninitialized.
func AllocZeroed[T any](a *Arena) *T {
	return Alloc[T](a)
}

// AllocUninitialized returns a *T located in the arena without zeroing
// memory. Faster than Alloc, but the contents are undefined until written.
func AllocUninitialized[T any](a *Arena) *T {
	var zero T
	return (*T)(a.AllocNoInit(unsafe.Sizeof(zero), unsafe.Alignof(zero)))
}

// AllocSlice allocates a slice of n elements of type T inside the arena
// without initializing them. Returns nil if n <= 0.
func AllocSlice[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)
	p := a.AllocNoInit(elemSize*uintptr(n), unsafe.Alignof(zero))
	return unsafe.Slice((*T)(p), n)
}

// AllocSliceZeroed allocates a slice of n elements of type T with zeroed
// memory. Returns nil if n <= 0.
func AllocSliceZeroed[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)
	p := a.Alloc(elemSize*uintptr(n), unsafe.Alignof(zero))
	return unsafe.Slice((*T)(p), n)
}
