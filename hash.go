package arena

import (
	"bytes"
	"unsafe"
)

// KeyKind selects how a Hash[T]'s key is interpreted: as raw opaque bytes,
// as a null-terminated string reached through a pointer, or as a byte
// slice reached through a {pointer, length} pair.
type KeyKind uint8

const (
	KeyOpaque KeyKind = iota
	KeyString
	KeySlice
)

// ByteSlice is the key layout required by a Hash[T] created with KeySlice:
// the item's key field must have exactly this shape.
type ByteSlice struct {
	Data *byte
	Len  uintptr
}

var (
	keySizeString = unsafe.Sizeof((*byte)(nil))
	keySizeSlice  = unsafe.Sizeof(ByteSlice{})
)

// hashMaxCapacity is the largest power-of-two capacity a Hash[T] will grow
// to.
const hashMaxCapacity = uint32(1) << 31

// hashHeader sits immediately before a Hash[T]'s items. The slot table
// lives in a separate arena allocation reached through table; its words
// are split into a hash half (indices [0, capacity*2)) and an index half
// (indices [capacity*2, capacity*4)), mirroring the teacher corpus's
// preference for dense arrays over pointer-chasing buckets.
type hashHeader struct {
	arena      *Arena
	table      *uint32
	spareTable *uint32
	length     uint32
	capacity   uint32
	tombstones uint32
	itemSize   uintptr
	keySize    uintptr
	keyKind    KeyKind
	magic      magic
}

// Hash is a map backed by a dense array plus an open-addressed slot table
// for O(1) lookup. Items() yields entries in insertion order until a
// Delete, which moves the last entry into the deleted entry's position.
type Hash[T any] struct {
	ptr *T
}

func hashHeaderOf[T any](ptr *T) *hashHeader {
	h := (*hashHeader)(unsafe.Add(unsafe.Pointer(ptr), -int(unsafe.Sizeof(hashHeader{}))))
	if h.magic != magicHash {
		panic(&MisuseError{Kind: MisuseBadMagic, Detail: "Hash"})
	}
	return h
}

func calculateHashCapacity(a *Arena, requested int) uint32 {
	if requested <= 0 {
		requested = a.smallListCapacity
	}
	cap := uint32(1)
	for uint64(cap) < uint64(requested) {
		if cap >= hashMaxCapacity {
			a.oom(uintptr(requested))
		}
		cap <<= 1
	}
	return cap
}

func createHash[T any](a *Arena, capacity int, keyKind KeyKind, keySize uintptr) *T {
	var zero T
	itemSize := unsafe.Sizeof(zero)
	itemAlign := unsafe.Alignof(zero)
	hdrSize := unsafe.Sizeof(hashHeader{})
	hdrAlign := unsafe.Alignof(hashHeader{})

	if keySize > itemSize {
		panic(&MisuseError{Kind: MisuseBadAlignment, Detail: "Hash[T]: key larger than item"})
	}
	if hdrAlign%itemAlign != 0 || hdrSize%itemAlign != 0 || itemSize%itemAlign != 0 {
		panic(&MisuseError{Kind: MisuseBadAlignment, Detail: "Hash[T]: item alignment incompatible with header layout"})
	}

	cap32 := calculateHashCapacity(a, capacity)

	mainSize := hdrSize + uintptr(cap32+1)*itemSize
	raw := a.AllocNoInit(mainSize, hdrAlign)
	payload := unsafe.Add(raw, hdrSize)
	clear(unsafe.Slice((*byte)(payload), itemSize))

	tableSize := uintptr(cap32) * 4 * unsafe.Sizeof(uint32(0))
	table := (*uint32)(a.Alloc(tableSize, unsafe.Alignof(uint32(0))))

	h := (*hashHeader)(raw)
	*h = hashHeader{
		arena:    a,
		table:    table,
		length:   0,
		capacity: cap32,
		itemSize: itemSize,
		keySize:  keySize,
		keyKind:  keyKind,
		magic:    magicHash,
	}
	return (*T)(payload)
}

// NewHash creates an empty Hash[T] with at least the given capacity
// (rounded up to a power of two). keySize is only meaningful for
// KeyOpaque; it is validated against the fixed layout size for KeyString
// and KeySlice.
func NewHash[T any](a *Arena, capacity int, keyKind KeyKind, keySize uintptr) Hash[T] {
	switch keyKind {
	case KeyString:
		if keySize != keySizeString {
			panic(&MisuseError{Kind: MisuseKeyKind, Detail: "KeyString requires keySize == pointer size"})
		}
	case KeySlice:
		if keySize != keySizeSlice {
			panic(&MisuseError{Kind: MisuseKeyKind, Detail: "KeySlice requires keySize == sizeof(ByteSlice)"})
		}
	case KeyOpaque:
		if keySize == 0 {
			panic(&MisuseError{Kind: MisuseKeyKind, Detail: "KeyOpaque requires keySize > 0"})
		}
	default:
		panic(&MisuseError{Kind: MisuseKeyKind, Detail: "unknown key kind"})
	}
	return Hash[T]{ptr: createHash[T](a, capacity, keyKind, keySize)}
}

func itemHash(h *hashHeader, item unsafe.Pointer) uint32 {
	switch h.keyKind {
	case KeyString:
		return hashCString(h.arena, *(**byte)(item))
	case KeySlice:
		bs := *(*ByteSlice)(item)
		var data []byte
		if bs.Len > 0 {
			data = unsafe.Slice(bs.Data, bs.Len)
		}
		return hashBytes(h.arena, data)
	default:
		return hashBytes(h.arena, unsafe.Slice((*byte)(item), h.keySize))
	}
}

func itemKeyEqual(h *hashHeader, a, b unsafe.Pointer) bool {
	switch h.keyKind {
	case KeyString:
		return cStringEqual(*(**byte)(a), *(**byte)(b))
	case KeySlice:
		ba := *(*ByteSlice)(a)
		bb := *(*ByteSlice)(b)
		if ba.Len != bb.Len {
			return false
		}
		if ba.Len == 0 {
			return true
		}
		return bytes.Equal(unsafe.Slice(ba.Data, ba.Len), unsafe.Slice(bb.Data, bb.Len))
	default:
		return bytes.Equal(unsafe.Slice((*byte)(a), h.keySize), unsafe.Slice((*byte)(b), h.keySize))
	}
}

func (m Hash[T]) Len() int {
	if m.ptr == nil {
		return 0
	}
	return int(hashHeaderOf(m.ptr).length)
}

func (m Hash[T]) Cap() int {
	if m.ptr == nil {
		return 0
	}
	return int(hashHeaderOf(m.ptr).capacity)
}

// Items returns the map's entries as a Go slice, in dense-array order
// (insertion order, except that each Delete moves the last entry into the
// deleted entry's position). The slice aliases the arena's memory and is
// invalidated by any operation that grows m.
func (m Hash[T]) Items() []T {
	n := m.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice(m.ptr, n)
}

func hashCopy[T any](ptr *T, capacity uint32) *T {
	h := hashHeaderOf(ptr)
	if capacity < h.length {
		capacity = h.length
	}
	capacity = calculateHashCapacity(h.arena, int(capacity))

	newPtr := createHash[T](h.arena, int(capacity), h.keyKind, h.keySize)
	newH := hashHeaderOf(newPtr)
	newH.length = h.length

	copyBytes(unsafe.Pointer(newPtr), unsafe.Pointer(ptr), (uintptr(h.length)+1)*h.itemSize)

	oldTbl := unsafe.Slice(h.table, uintptr(h.capacity)*4)
	newTbl := unsafe.Slice(newH.table, uintptr(newH.capacity)*4)
	newMask := newH.capacity*2 - 1
	for s := uint32(0); s < h.capacity*2; s++ {
		hv := oldTbl[int(s)]
		if hv == 0 || hv == 1 {
			continue
		}
		slot := hv & newMask
		for newTbl[int(slot)] != 0 {
			slot = (slot + 1) & newMask
		}
		newTbl[int(slot)] = hv
		idx := oldTbl[int(h.capacity*2+s)]
		newTbl[int(newH.capacity*2+slot)] = idx
	}
	return newPtr
}

// Copy returns an independent Hash[T] holding the same entries, with at
// least the given capacity.
func (m Hash[T]) Copy(capacity int) Hash[T] {
	return Hash[T]{ptr: hashCopy[T](m.ptr, uint32(capacity))}
}

func hashResizeCapacity[T any](ptr *T, newCapacity uint32) *T {
	h := hashHeaderOf(ptr)
	if newCapacity < h.length {
		newCapacity = h.length
	}
	newCapacity = calculateHashCapacity(h.arena, int(newCapacity))
	if newCapacity <= h.capacity {
		return ptr
	}
	newPtr := hashCopy[T](ptr, newCapacity)
	h.magic = magicDead
	return newPtr
}

// ResizeCapacity grows the map's slot table and backing array to at least
// the given capacity. Shrinking is not supported.
func (m *Hash[T]) ResizeCapacity(capacity int) {
	m.ptr = hashResizeCapacity[T](m.ptr, uint32(capacity))
}

func hashRebuildTable[T any](ptr *T) *T {
	h := hashHeaderOf(ptr)
	tableSize := uintptr(h.capacity) * 4 * unsafe.Sizeof(uint32(0))
	if h.spareTable == nil {
		h.spareTable = (*uint32)(h.arena.Alloc(tableSize, unsafe.Alignof(uint32(0))))
	} else {
		clear(unsafe.Slice((*byte)(unsafe.Pointer(h.spareTable)), tableSize))
	}
	spare := unsafe.Slice(h.spareTable, uintptr(h.capacity)*4)
	active := unsafe.Slice(h.table, uintptr(h.capacity)*4)
	mask := h.capacity*2 - 1
	for s := uint32(0); s < h.capacity*2; s++ {
		hv := active[int(s)]
		if hv == 0 || hv == 1 {
			continue
		}
		slot := hv & mask
		for spare[int(slot)] != 0 {
			slot = (slot + 1) & mask
		}
		spare[int(slot)] = hv
		spare[int(h.capacity*2+slot)] = active[int(h.capacity*2+s)]
	}
	h.table, h.spareTable = h.spareTable, h.table
	h.tombstones = 0
	return ptr
}

func hashEnsureSpace[T any](ptr *T, count uint32) *T {
	h := hashHeaderOf(ptr)
	if h.capacity-h.tombstones-h.length >= count {
		return ptr
	}
	futureLength := h.length + count
	desired := futureLength + futureLength/2
	if desired < count {
		desired = count
	}
	newCap := nextPow2u32(desired)
	if newCap == 0 || newCap > hashMaxCapacity {
		h.arena.oom(uintptr(count))
	}
	ptr = hashResizeCapacity[T](ptr, newCap)
	h = hashHeaderOf(ptr)
	if h.tombstones > 0 {
		ptr = hashRebuildTable[T](ptr)
	}
	return ptr
}

// EnsureSpace grows the map, rebuilding the slot table to reclaim
// tombstones if needed, so that count more entries can be inserted without
// another resize.
func (m *Hash[T]) EnsureSpace(count int) {
	m.ptr = hashEnsureSpace[T](m.ptr, uint32(count))
}

func hashFind[T any](ptr *T, key unsafe.Pointer) (*T, bool) {
	h := hashHeaderOf(ptr)
	if h.capacity == 0 {
		return nil, false
	}
	tbl := unsafe.Slice(h.table, uintptr(h.capacity)*4)
	mask := h.capacity*2 - 1
	hv := itemHash(h, key)
	slot := hv & mask
	for tbl[int(slot)] != 0 {
		if tbl[int(slot)] == hv {
			idx := tbl[int(h.capacity*2+slot)]
			item := unsafe.Add(unsafe.Pointer(ptr), uintptr(idx)*h.itemSize)
			if itemKeyEqual(h, key, item) {
				return (*T)(item), true
			}
		}
		slot = (slot + 1) & mask
	}
	return nil, false
}

// Find looks up the entry whose key matches the first key-sized bytes
// pointed to by key. key must have the same layout as an item's key
// portion for this map's KeyKind.
func (m Hash[T]) Find(key unsafe.Pointer) (*T, bool) {
	if m.ptr == nil {
		return nil, false
	}
	return hashFind[T](m.ptr, key)
}

// FindValue is a convenience wrapper around Find for callers that already
// have a full item (or a zero item with only the key fields set) rather
// than a bare key pointer.
func (m Hash[T]) FindValue(keyItem T) (*T, bool) {
	return m.Find(unsafe.Pointer(&keyItem))
}

func hashFindOrInsert[T any](ptr *T, item T) (*T, uint32, bool) {
	ptr = hashEnsureSpace[T](ptr, 1)
	h := hashHeaderOf(ptr)
	tbl := unsafe.Slice(h.table, uintptr(h.capacity)*4)
	mask := h.capacity*2 - 1
	hv := itemHash(h, unsafe.Pointer(&item))
	slot := hv & mask
	for tbl[int(slot)] != 0 {
		if tbl[int(slot)] == hv {
			idx := tbl[int(h.capacity*2+slot)]
			existing := unsafe.Add(unsafe.Pointer(ptr), uintptr(idx)*h.itemSize)
			if itemKeyEqual(h, unsafe.Pointer(&item), existing) {
				return ptr, idx, true
			}
		}
		slot = (slot + 1) & mask
	}
	idx := h.length
	tbl[int(slot)] = hv
	tbl[int(h.capacity*2+slot)] = idx
	h.length++
	dst := unsafe.Add(unsafe.Pointer(ptr), uintptr(idx)*h.itemSize)
	*(*T)(dst) = item
	clear(unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(ptr), uintptr(h.length)*h.itemSize)), h.itemSize))
	return ptr, idx, false
}

// FindOrInsert looks up item's key; if absent, inserts item and returns a
// pointer to the newly stored copy. The bool result reports whether the
// entry already existed.
func (m *Hash[T]) FindOrInsert(item T) (*T, bool) {
	newPtr, idx, found := hashFindOrInsert[T](m.ptr, item)
	m.ptr = newPtr
	h := hashHeaderOf(newPtr)
	return (*T)(unsafe.Add(unsafe.Pointer(newPtr), uintptr(idx)*h.itemSize)), found
}

// Update inserts item if its key is absent, or overwrites the existing
// entry's value if present. Returns a pointer to the stored item.
func (m *Hash[T]) Update(item T) *T {
	p, found := m.FindOrInsert(item)
	if found {
		*p = item
	}
	return p
}

func hashDelete[T any](ptr *T, key unsafe.Pointer) bool {
	h := hashHeaderOf(ptr)
	if h.capacity == 0 {
		return false
	}
	tbl := unsafe.Slice(h.table, uintptr(h.capacity)*4)
	mask := h.capacity*2 - 1
	hv := itemHash(h, key)
	slot := hv & mask
	for tbl[int(slot)] != 0 {
		if tbl[int(slot)] != hv {
			slot = (slot + 1) & mask
			continue
		}
		idx := tbl[int(h.capacity*2+slot)]
		item := unsafe.Add(unsafe.Pointer(ptr), uintptr(idx)*h.itemSize)
		if !itemKeyEqual(h, key, item) {
			slot = (slot + 1) & mask
			continue
		}

		tbl[int(slot)] = 1
		h.tombstones++
		lastIdx := h.length - 1
		if idx != lastIdx {
			lastItem := unsafe.Add(unsafe.Pointer(ptr), uintptr(lastIdx)*h.itemSize)
			copyBytes(item, lastItem, h.itemSize)

			movedHash := itemHash(h, item)
			mslot := movedHash & mask
			for {
				if tbl[int(mslot)] == movedHash && tbl[int(h.capacity*2+mslot)] == lastIdx {
					tbl[int(h.capacity*2+mslot)] = idx
					break
				}
				mslot = (mslot + 1) & mask
			}
		}
		h.length--
		clear(unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(ptr), uintptr(h.length)*h.itemSize)), h.itemSize))
		return true
	}
	return false
}

// Delete removes the entry whose key matches key, if any, keeping the
// dense array contiguous by moving the last entry into the deleted slot.
// Reports whether an entry was removed.
func (m Hash[T]) Delete(key unsafe.Pointer) bool {
	if m.ptr == nil {
		return false
	}
	return hashDelete[T](m.ptr, key)
}
