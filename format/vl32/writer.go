package vl32

import (
	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/palette"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// Writer encodes voxels to vl32's unframed record stream. Unlike
// Binvox or QB, vl32 has no header and no pre-declared body size, so
// every Write32 call is emitted straight through with no buffering.
type Writer struct {
	out         stream.OutputStream
	initialized bool
	finalized   bool
}

// NewWriter creates a vl32 writer over out.
func NewWriter(out stream.OutputStream) *Writer {
	return &Writer{out: out}
}

// Init marks the writer ready. vl32 has no header to emit.
func (w *Writer) Init() voxelio.ResultCode {
	w.initialized = true
	return voxelio.ResultOK
}

// Write32 appends one record per voxel, in order.
func (w *Writer) Write32(buf []voxel.Voxel32) voxelio.ResultCode {
	if !w.initialized {
		w.Init()
	}
	for _, v := range buf {
		stream.WriteInt32(w.out, voxelio.BigEndian, v.X)
		stream.WriteInt32(w.out, voxelio.BigEndian, v.Y)
		stream.WriteInt32(w.out, voxelio.BigEndian, v.Z)
		stream.WriteUint32(w.out, voxelio.BigEndian, v.ARGB)
	}
	if w.out.Err() {
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}

// Palette returns nil: vl32 stores colors inline, no palette.
func (w *Writer) Palette() *palette.Palette { return nil }

// SetCanvasDimensions always returns false: vl32 streams records with
// no pre-sized grid to inform.
func (w *Writer) SetCanvasDimensions(voxel.Dimensions) bool { return false }

// Finalize flushes the underlying stream. vl32 buffers nothing itself.
func (w *Writer) Finalize() voxelio.ResultCode {
	if w.finalized {
		return voxelio.ResultWarningNOP
	}
	w.finalized = true
	w.out.Flush()
	if w.out.Err() {
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}
