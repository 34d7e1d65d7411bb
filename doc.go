// Package arena implements a region-based memory allocator.
//
// # Overview
//
// An Arena owns a chain of large blocks obtained from the Go runtime and
// serves sub-allocations from the current block by bumping a pointer.
// Individual allocations are never freed; the arena as a whole is released
// with Clear (keep the most recent block) or Free (drop everything).
//
//	a := arena.NewArena()
//	defer a.Free()
//
//	n := arena.Alloc[int](a)
//	*n = 42
//
//	s := arena.AllocSlice[byte](a, 1024)
//
// # Containers
//
// Three growable containers allocate their backing storage from an Arena:
// String (a null-terminated mutable byte string), List[T] (a
// null-terminated typed array), and Hash[T] (an order-preserving hash map).
// All three keep a small header immediately before the payload the caller
// holds, so the payload stays directly usable by code that doesn't import
// this package (e.g. iterating a List[T] until it hits the zero-value
// sentinel).
//
// # Thread safety
//
// Nothing in this package is safe for concurrent use. An Arena is meant to
// be owned and mutated by a single goroutine; if two containers share an
// arena, interleaving their growth defeats the last-allocation resize fast
// path (it still works correctly, it just copies more).
//
// # Out of memory
//
// A request whose block size would overflow uintptr arithmetic, or that
// would exceed a structural limit (e.g. the hash table's slot count), is not
// a recoverable error in this package: it panics with an *OOMError after
// invoking the arena's configured OOM handler, if any. Contract violations
// (bad magic word, wrong handle kind, non-power-of-two alignment) panic
// with a *MisuseError. Both panics are safe to recover and inspect with
// errors.As.
package arena
