package arena

import "unsafe"

// listHeader sits immediately before a List[T]'s items.
type listHeader struct {
	arena    *Arena
	length   uintptr
	capacity uintptr
	itemSize uintptr
	magic    magic
}

// List is a growable, null-terminated typed array backed by an Arena:
// items[Len()] is always the zero value of T, so code that doesn't import
// this package can iterate a raw *T until it hits a zero item.
type List[T any] struct {
	ptr *T
}

func listHeaderOf[T any](ptr *T) *listHeader {
	h := (*listHeader)(unsafe.Add(unsafe.Pointer(ptr), -int(unsafe.Sizeof(listHeader{}))))
	if h.magic != magicList {
		panic(&MisuseError{Kind: MisuseBadMagic, Detail: "List"})
	}
	return h
}

func checkListAlignment[T any]() (itemSize, itemAlign uintptr) {
	var zero T
	itemSize = unsafe.Sizeof(zero)
	itemAlign = unsafe.Alignof(zero)
	hdrSize := unsafe.Sizeof(listHeader{})
	hdrAlign := unsafe.Alignof(listHeader{})
	if hdrAlign%itemAlign != 0 || hdrSize%itemAlign != 0 || itemSize%itemAlign != 0 {
		panic(&MisuseError{Kind: MisuseBadAlignment, Detail: "List[T]: item alignment incompatible with header layout"})
	}
	return itemSize, itemAlign
}

func createList[T any](a *Arena, capacity int) *T {
	itemSize, _ := checkListAlignment[T]()
	if capacity <= 0 {
		capacity = a.smallListCapacity
	}
	hdrSize := unsafe.Sizeof(listHeader{})
	hdrAlign := unsafe.Alignof(listHeader{})
	total := hdrSize + uintptr(capacity+1)*itemSize
	raw := a.AllocNoInit(total, hdrAlign)
	h := (*listHeader)(raw)
	*h = listHeader{arena: a, length: 0, capacity: uintptr(capacity), itemSize: itemSize, magic: magicList}
	payload := unsafe.Add(raw, hdrSize)
	clear(unsafe.Slice((*byte)(payload), itemSize))
	return (*T)(payload)
}

// NewList creates an empty List[T] with at least the given capacity. A
// capacity of 0 uses the arena's small-list default.
func NewList[T any](a *Arena, capacity int) List[T] {
	return List[T]{ptr: createList[T](a, capacity)}
}

func (l List[T]) Len() int {
	if l.ptr == nil {
		return 0
	}
	return int(listHeaderOf(l.ptr).length)
}

func (l List[T]) Cap() int {
	if l.ptr == nil {
		return 0
	}
	return int(listHeaderOf(l.ptr).capacity)
}

// Ptr returns the raw sentinel-terminated payload pointer.
func (l List[T]) Ptr() *T { return l.ptr }

// Items returns the list's elements as a Go slice. The slice aliases the
// arena's memory and is invalidated by any operation that grows l.
func (l List[T]) Items() []T {
	n := l.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice(l.ptr, n)
}

func listCopy[T any](ptr *T, capacity int) *T {
	h := listHeaderOf(ptr)
	if uintptr(capacity) < h.length {
		capacity = int(h.length)
	}
	newPtr := createList[T](h.arena, capacity)
	newH := listHeaderOf(newPtr)
	newH.length = h.length
	copyBytes(unsafe.Pointer(newPtr), unsafe.Pointer(ptr), (h.length+1)*h.itemSize)
	return newPtr
}

// Copy returns an independent List[T] holding the same items, with at
// least the given capacity.
func (l List[T]) Copy(capacity int) List[T] {
	return List[T]{ptr: listCopy[T](l.ptr, capacity)}
}

func listResizeCapacity[T any](ptr *T, newCapacity int) *T {
	h := listHeaderOf(ptr)
	if uintptr(newCapacity) < h.length {
		newCapacity = int(h.length)
	}
	newSize := unsafe.Sizeof(listHeader{}) + (uintptr(newCapacity)+1)*h.itemSize
	if h.arena.TryResize(unsafe.Pointer(h), newSize) {
		h.capacity = uintptr(newCapacity)
		return ptr
	}
	newPtr := listCopy[T](ptr, newCapacity)
	h.magic = magicDead
	return newPtr
}

// ResizeCapacity grows or shrinks the list's backing capacity. l is updated
// in place; if the items had to be copied, other copies of the old handle
// are invalidated.
func (l *List[T]) ResizeCapacity(capacity int) {
	l.ptr = listResizeCapacity[T](l.ptr, capacity)
}

func listSetLength[T any](ptr *T, length int) *T {
	h := listHeaderOf(ptr)
	if uintptr(length) > h.capacity {
		ptr = listResizeCapacity[T](ptr, length)
		h = listHeaderOf(ptr)
	}
	if uintptr(length) > h.length {
		start := unsafe.Add(unsafe.Pointer(ptr), h.length*h.itemSize)
		n := (uintptr(length) - h.length + 1) * h.itemSize
		clear(unsafe.Slice((*byte)(start), n))
	} else {
		start := unsafe.Add(unsafe.Pointer(ptr), uintptr(length)*h.itemSize)
		clear(unsafe.Slice((*byte)(start), h.itemSize))
	}
	h.length = uintptr(length)
	return ptr
}

// SetLength changes the list's length directly, growing capacity if
// needed. New items beyond the old length are zero-valued; items[Len()] is
// always kept zero.
func (l *List[T]) SetLength(length int) {
	l.ptr = listSetLength[T](l.ptr, length)
}

func listPush[T any](ptr *T, item T) *T {
	h := listHeaderOf(ptr)
	if h.length >= h.capacity {
		newCap := h.length + 1
		if newCap <= ^uintptr(0)/2 {
			newCap *= 2
		}
		ptr = listResizeCapacity[T](ptr, int(newCap))
		h = listHeaderOf(ptr)
	}
	idx := h.length
	h.length++
	*(*T)(unsafe.Add(unsafe.Pointer(ptr), idx*h.itemSize)) = item
	clear(unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(ptr), h.length*h.itemSize)), h.itemSize))
	return ptr
}

// Push appends item, growing capacity (doubling) as needed.
func (l *List[T]) Push(item T) {
	l.ptr = listPush[T](l.ptr, item)
}

func listDropFront[T any](ptr *T, n int) *T {
	h := listHeaderOf(ptr)
	if n <= 0 {
		return ptr
	}
	if uintptr(n) > h.length {
		n = int(h.length)
	}
	itemSize := h.itemSize
	newHeaderPtr := unsafe.Add(unsafe.Pointer(h), uintptr(n)*itemSize)
	newHeader := (*listHeader)(newHeaderPtr)
	*newHeader = listHeader{
		arena:    h.arena,
		length:   h.length - uintptr(n),
		capacity: h.capacity - uintptr(n),
		itemSize: itemSize,
		magic:    magicList,
	}
	return (*T)(unsafe.Add(newHeaderPtr, unsafe.Sizeof(listHeader{})))
}

// DropFront advances the list past the first n items by moving the header
// forward within the same allocation: the skipped items become unused
// padding, not reclaimed until the whole arena is cleared or freed.
func (l *List[T]) DropFront(n int) {
	l.ptr = listDropFront[T](l.ptr, n)
}
