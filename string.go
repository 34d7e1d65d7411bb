package arena

import (
	"fmt"
	"unsafe"
)

// stringHeader sits immediately before a String's payload.
type stringHeader struct {
	arena    *Arena
	length   uintptr
	capacity uintptr
	magic    magic
}

// String is a growable, null-terminated byte string backed by an Arena.
// The zero value is not usable; create one with NewString.
type String struct {
	ptr *byte
}

func stringHeaderOf(ptr *byte) *stringHeader {
	h := (*stringHeader)(unsafe.Add(unsafe.Pointer(ptr), -int(unsafe.Sizeof(stringHeader{}))))
	if h.magic != magicString {
		panic(&MisuseError{Kind: MisuseBadMagic, Detail: "String"})
	}
	return h
}

func createString(a *Arena, capacity uintptr) *byte {
	hdrSize := unsafe.Sizeof(stringHeader{})
	raw := a.AllocNoInit(hdrSize+capacity+1, unsafe.Alignof(stringHeader{}))
	h := (*stringHeader)(raw)
	*h = stringHeader{arena: a, length: 0, capacity: capacity, magic: magicString}
	payload := (*byte)(unsafe.Add(raw, hdrSize))
	*payload = 0
	return payload
}

// NewString creates an empty String with at least the given capacity.
func NewString(a *Arena, capacity int) String {
	return String{ptr: createString(a, uintptr(capacity))}
}

// NewStringFormat creates a String initialized to a formatted value,
// over-allocating speculatively the way Arena.Printf does.
func NewStringFormat(a *Arena, format string, args ...any) String {
	hdrSize := unsafe.Sizeof(stringHeader{})
	remainder := a.PreAlloc(uintptr(a.smallStringFloor)+hdrSize, unsafe.Alignof(stringHeader{}))
	cap0 := remainder - hdrSize - 1
	s := String{ptr: createString(a, cap0)}
	s.AppendFormat(format, args...)
	s.ptr = stringResizeCapacity(s.ptr, uintptr(s.Len()))
	return s
}

func (s String) Len() int {
	if s.ptr == nil {
		return 0
	}
	return int(stringHeaderOf(s.ptr).length)
}

func (s String) Cap() int {
	if s.ptr == nil {
		return 0
	}
	return int(stringHeaderOf(s.ptr).capacity)
}

// Ptr returns the raw null-terminated payload pointer, usable by code that
// doesn't import this package.
func (s String) Ptr() *byte { return s.ptr }

// Bytes returns the string's content without the trailing null byte. The
// returned slice aliases the arena's memory and is invalidated by any
// operation that grows s.
func (s String) Bytes() []byte {
	h := stringHeaderOf(s.ptr)
	if h.length == 0 {
		return nil
	}
	return unsafe.Slice(s.ptr, h.length)
}

func (s String) String() string {
	return string(s.Bytes())
}

func stringCopy(ptr *byte, newCapacity uintptr) *byte {
	h := stringHeaderOf(ptr)
	if newCapacity < h.length {
		newCapacity = h.length
	}
	newPtr := createString(h.arena, newCapacity)
	newH := stringHeaderOf(newPtr)
	newH.length = h.length
	copyBytes(unsafe.Pointer(newPtr), unsafe.Pointer(ptr), h.length)
	*(*byte)(unsafe.Add(unsafe.Pointer(newPtr), h.length)) = 0
	return newPtr
}

// Copy returns an independent String holding the same content, with at
// least the given capacity.
func (s String) Copy(capacity int) String {
	return String{ptr: stringCopy(s.ptr, uintptr(capacity))}
}

func stringResizeCapacity(ptr *byte, newCapacity uintptr) *byte {
	h := stringHeaderOf(ptr)
	if newCapacity < h.length {
		newCapacity = h.length
	}
	newSize := unsafe.Sizeof(stringHeader{}) + newCapacity + 1
	if h.arena.TryResize(unsafe.Pointer(h), newSize) {
		h.capacity = newCapacity
		return ptr
	}
	newPtr := stringCopy(ptr, newCapacity)
	h.magic = magicDead
	return newPtr
}

// ResizeCapacity grows or shrinks the String's backing capacity. s is
// updated in place; if the payload had to be copied, other copies of the
// old handle are invalidated.
func (s *String) ResizeCapacity(capacity int) {
	s.ptr = stringResizeCapacity(s.ptr, uintptr(capacity))
}

func stringSetLength(ptr *byte, length uintptr) *byte {
	h := stringHeaderOf(ptr)
	if length > h.capacity {
		ptr = stringResizeCapacity(ptr, length)
		h = stringHeaderOf(ptr)
	}
	if length > h.length {
		n := length - h.length + 1
		clear(unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(ptr), h.length)), n))
	} else {
		*(*byte)(unsafe.Add(unsafe.Pointer(ptr), length)) = 0
	}
	h.length = length
	return ptr
}

// SetLength changes the String's length directly, growing capacity if
// needed. Bytes beyond the old length are zeroed; the null terminator is
// always kept at the new length.
func (s *String) SetLength(length int) {
	s.ptr = stringSetLength(s.ptr, uintptr(length))
}

func (s *String) appendBytes(data []byte) {
	h := stringHeaderOf(s.ptr)
	newLength := h.length + uintptr(len(data))
	if h.capacity < newLength {
		newCap := newLength
		if newCap <= ^uintptr(0)/2 {
			newCap *= 2
		}
		s.ptr = stringResizeCapacity(s.ptr, newCap)
		h = stringHeaderOf(s.ptr)
	}
	if len(data) > 0 {
		copyBytes(unsafe.Add(unsafe.Pointer(s.ptr), h.length), unsafe.Pointer(&data[0]), uintptr(len(data)))
	}
	*(*byte)(unsafe.Add(unsafe.Pointer(s.ptr), newLength)) = 0
	h.length = newLength
}

// Append appends a Go string's bytes to s, growing capacity as needed.
func (s *String) Append(str string) {
	s.appendBytes([]byte(str))
}

// AppendCString appends the contents of a null-terminated string, treating
// a nil pointer as the literal text "(null)" (matching the C original's
// handling of a NULL argument to puts-style append).
func (s *String) AppendCString(src *byte) {
	if src == nil {
		s.appendBytes([]byte("(null)"))
		return
	}
	s.appendBytes(cStringBytes(src))
}

// AppendFormat appends formatted text to s. If the remaining capacity isn't
// enough, it grows capacity to twice the required length and retries once.
// Returns the number of bytes appended.
func (s *String) AppendFormat(format string, args ...any) int {
	grew := false
	for {
		h := stringHeaderOf(s.ptr)
		avail := h.capacity + 1 - h.length
		target := unsafe.Add(unsafe.Pointer(s.ptr), h.length)
		w := &boundedWriter{buf: unsafe.Slice((*byte)(target), avail)}
		fmt.Fprintf(w, format, args...)
		result := w.n

		if uintptr(result) < avail {
			*(*byte)(unsafe.Add(target, result)) = 0
			h.length += uintptr(result)
			return result
		}
		if grew {
			h.arena.oom(uintptr(result))
		}
		*(*byte)(target) = 0
		newCap := h.length + uintptr(result)
		if newCap <= ^uintptr(0)/2 {
			newCap *= 2
		}
		s.ptr = stringResizeCapacity(s.ptr, newCap)
		grew = true
	}
}

// WriteAt overwrites the bytes starting at offset with data, growing
// length and capacity as needed. Any gap between the old length and offset
// is zero-filled.
func (s *String) WriteAt(offset int, data []byte) {
	h := stringHeaderOf(s.ptr)
	off := uintptr(offset)
	size := uintptr(len(data))
	required := off + size

	if h.capacity < required {
		newCap := required
		if newCap <= ^uintptr(0)/2 {
			newCap *= 2
		}
		s.ptr = stringResizeCapacity(s.ptr, newCap)
		h = stringHeaderOf(s.ptr)
	}
	if h.length < required {
		if h.length < off {
			clear(unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(s.ptr), h.length)), off-h.length))
		}
		*(*byte)(unsafe.Add(unsafe.Pointer(s.ptr), required)) = 0
		h.length = required
	}
	if size > 0 {
		copyBytes(unsafe.Add(unsafe.Pointer(s.ptr), off), unsafe.Pointer(&data[0]), size)
	}
}

// Clear resets the String's length to zero without releasing capacity.
func (s *String) Clear() {
	h := stringHeaderOf(s.ptr)
	h.length = 0
	*s.ptr = 0
}

// CompactToBytes drops the String's header, shrinking the allocation down
// to just a null-terminated byte buffer if it happens to be the arena's
// most recent allocation, and returns the raw pointer. The String handle
// itself is invalidated.
func (s String) CompactToBytes() *byte {
	h := stringHeaderOf(s.ptr)
	length := h.length
	h.magic = magicDead
	size := length + 1
	if h.arena.TryResize(unsafe.Pointer(h), size) {
		dst := unsafe.Pointer(h)
		copyBytes(dst, unsafe.Pointer(s.ptr), size)
		return (*byte)(dst)
	}
	return s.ptr
}
