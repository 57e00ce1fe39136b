package qb

import (
	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/palette"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// Writer emits a single-matrix QB model: RGBA color format, LEFT z
// orientation, uncompressed, not visibility-masked (spec §4.7's
// documented writer defaults).
type Writer struct {
	out stream.OutputStream

	name string
	dim  Dims

	// grid accumulates written voxels since QB's uncompressed body
	// requires the full slice-major ordering up front.
	grid map[[3]int32]uint32

	initialized bool
	finalized   bool
}

// Dims is a matrix's voxel extent.
type Dims struct {
	X, Y, Z uint32
}

// NewWriter creates a QB writer over out, naming the single emitted
// matrix name.
func NewWriter(out stream.OutputStream, name string) *Writer {
	return &Writer{out: out, name: name, grid: make(map[[3]int32]uint32)}
}

// SetDimensions declares the matrix's extent; required before
// Finalize.
func (w *Writer) SetDimensions(dim Dims) { w.dim = dim }

// Init is a no-op; the header is written from Finalize, once the full
// voxel set is known (mirrors binvox.Writer: QB's body layout requires
// knowing every voxel before any bytes can be emitted).
func (w *Writer) Init() voxelio.ResultCode {
	w.initialized = true
	return voxelio.ResultOK
}

// Write32 records each voxel's color at its position.
func (w *Writer) Write32(buf []voxel.Voxel32) voxelio.ResultCode {
	if !w.initialized {
		w.Init()
	}
	for _, v := range buf {
		w.grid[[3]int32{v.X, v.Y, v.Z}] = v.ARGB
	}
	return voxelio.ResultOK
}

// Palette returns nil: this writer emits direct colors, no palette.
func (w *Writer) Palette() *palette.Palette { return nil }

// SetCanvasDimensions implements voxel.AbstractListWriter.
func (w *Writer) SetCanvasDimensions(dims voxel.Dimensions) bool {
	w.SetDimensions(Dims{X: dims.X, Y: dims.Y, Z: dims.Z})
	return true
}

// Finalize writes the header and the single matrix's uncompressed
// body.
func (w *Writer) Finalize() voxelio.ResultCode {
	if w.finalized {
		return voxelio.ResultWarningNOP
	}
	w.finalized = true

	stream.WriteUint32(w.out, voxelio.BigEndian, currentVersion)
	stream.WriteUint32(w.out, voxelio.BigEndian, uint32(ColorFormatRGBA))
	stream.WriteUint32(w.out, voxelio.BigEndian, uint32(ZOrientLeft))
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // compressed = false
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // visibilityMaskEncoded = false
	stream.WriteUint32(w.out, voxelio.LittleEndian, 1) // numMatrices

	nameBytes := []byte(w.name)
	if len(nameBytes) > 255 {
		nameBytes = nameBytes[:255]
	}
	w.out.WriteByte(byte(len(nameBytes)))
	w.out.Write(nameBytes)

	stream.WriteUint32(w.out, voxelio.LittleEndian, w.dim.X)
	stream.WriteUint32(w.out, voxelio.LittleEndian, w.dim.Y)
	stream.WriteUint32(w.out, voxelio.LittleEndian, w.dim.Z)
	stream.WriteInt32(w.out, voxelio.LittleEndian, 0) // pos.x
	stream.WriteInt32(w.out, voxelio.LittleEndian, 0) // pos.y
	stream.WriteInt32(w.out, voxelio.LittleEndian, 0) // pos.z

	for z := uint32(0); z < w.dim.Z; z++ {
		for y := uint32(0); y < w.dim.Y; y++ {
			for x := uint32(0); x < w.dim.X; x++ {
				argb := w.grid[[3]int32{int32(x), int32(y), int32(z)}]
				word := encodeColorRGBA(voxelio.ColorFromARGB(argb))
				stream.WriteUint32(w.out, voxelio.BigEndian, word)
			}
		}
	}

	w.out.Flush()
	if w.out.Err() {
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}
