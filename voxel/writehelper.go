package voxel

// WriteHelper writes into either a Voxel32 or a Voxel64 buffer through
// one uniform API, converting each write to the buffer's actual width
// (spec §4.5 WriteHelper). Exactly one of buf32/buf64 is non-nil at a
// time; Reset(32|64) selects which.
type WriteHelper struct {
	buf32 []Voxel32
	buf64 []Voxel64
	index int
	limit int
}

// Reset32 points the helper at a Voxel32 destination buffer.
func (h *WriteHelper) Reset32(buf []Voxel32) {
	h.buf32 = buf
	h.buf64 = nil
	h.index = 0
	h.limit = len(buf)
}

// Reset64 points the helper at a Voxel64 destination buffer.
func (h *WriteHelper) Reset64(buf []Voxel64) {
	h.buf64 = buf
	h.buf32 = nil
	h.index = 0
	h.limit = len(buf)
}

// Write32 writes v, widening to Voxel64 if the underlying buffer is
// 64-bit. Reports false if the helper is already full.
func (h *WriteHelper) Write32(v Voxel32) bool {
	if h.isFull() {
		return false
	}
	if h.buf32 != nil {
		h.buf32[h.index] = v
	} else {
		h.buf64[h.index] = Widen(v)
	}
	h.index++
	return true
}

// Write64 writes v, narrowing to Voxel32 if the underlying buffer is
// 32-bit. Reports false if the helper is already full.
func (h *WriteHelper) Write64(v Voxel64) bool {
	if h.isFull() {
		return false
	}
	if h.buf64 != nil {
		h.buf64[h.index] = v
	} else {
		h.buf32[h.index] = Narrow(v)
	}
	h.index++
	return true
}

func (h *WriteHelper) isFull() bool { return h.index == h.limit }

// CanWrite reports whether at least one more voxel can be written.
func (h *WriteHelper) CanWrite() bool { return h.index != h.limit }

// IsFull reports whether the destination buffer has been completely
// filled.
func (h *WriteHelper) IsFull() bool { return h.isFull() }

// VoxelsWritten returns the number of voxels written so far.
func (h *WriteHelper) VoxelsWritten() int { return h.index }

// Capacity returns the size of the destination buffer.
func (h *WriteHelper) Capacity() int { return h.limit }
