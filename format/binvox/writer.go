package binvox

import (
	"strconv"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/palette"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// Writer encodes voxels to Binvox's text-header/RLE-body layout.
// Binvox carries no color data, so the writer needs only occupancy:
// Write32 entries with ARGB == 0 are treated as empty, anything else
// as filled, matching the format's boolean-grid model.
type Writer struct {
	out stream.OutputStream

	dim            Dims
	dimSet         bool
	translation    Translation
	hasTranslation bool
	scale          float32
	hasScale       bool

	headerWritten bool
	finalized     bool

	// occupancy is accumulated across Write32 calls since Binvox's RLE
	// body requires knowing the full linear run structure, which can't
	// be streamed voxel-by-voxel without look-ahead.
	occupancy []bool
}

// NewWriter creates a Binvox writer over out. SetDimensions must be
// called (directly, or via SetCanvasDimensions) before Finalize.
func NewWriter(out stream.OutputStream) *Writer {
	return &Writer{out: out}
}

// SetDimensions declares the voxel grid's extent; required before
// Finalize.
func (w *Writer) SetDimensions(dim Dims) {
	w.dim = dim
	w.dimSet = true
	w.occupancy = make([]bool, uint64(dim.X)*uint64(dim.Y)*uint64(dim.Z))
}

// SetTranslation sets the optional "translate" header field.
func (w *Writer) SetTranslation(t Translation) {
	w.translation = t
	w.hasTranslation = true
}

// SetScale sets the optional "scale" header field.
func (w *Writer) SetScale(s float32) {
	w.scale = s
	w.hasScale = true
}

// Init is a no-op; Binvox's header is written lazily from Finalize once
// dimensions are known up front (spec §4.5: Init implicit on first
// write, but Binvox's body layout needs the full occupancy grid before
// any bytes can be emitted).
func (w *Writer) Init() voxelio.ResultCode { return voxelio.ResultOK }

// Write32 marks each voxel's position as occupied.
func (w *Writer) Write32(buf []voxel.Voxel32) voxelio.ResultCode {
	if !w.dimSet {
		return voxelio.ResultUserErrorMissingCanvas
	}
	for _, v := range buf {
		if v.X < 0 || v.Y < 0 || v.Z < 0 {
			return voxelio.ResultWriteErrorOutOfBoundsPosition
		}
		idx := posToIndex(uint64(v.X), uint64(v.Y), uint64(v.Z), w.dim)
		if idx >= uint64(len(w.occupancy)) {
			return voxelio.ResultWriteErrorOutOfBoundsPosition
		}
		w.occupancy[idx] = v.ARGB != 0
	}
	return voxelio.ResultOK
}

// Palette returns nil: Binvox has no palette.
func (w *Writer) Palette() *palette.Palette { return nil }

// SetCanvasDimensions implements voxel.AbstractListWriter by delegating
// to SetDimensions.
func (w *Writer) SetCanvasDimensions(dims voxel.Dimensions) bool {
	w.SetDimensions(Dims{X: dims.X, Y: dims.Y, Z: dims.Z})
	return true
}

// Finalize writes the header and RLE body.
func (w *Writer) Finalize() voxelio.ResultCode {
	if w.finalized {
		return voxelio.ResultWarningNOP
	}
	w.finalized = true
	if !w.dimSet {
		return voxelio.ResultUserErrorMissingCanvas
	}

	w.writeLine(magic + " " + strconv.Itoa(version))
	w.writeLine("dim " + strconv.Itoa(int(w.dim.X)) + " " + strconv.Itoa(int(w.dim.Y)) + " " + strconv.Itoa(int(w.dim.Z)))
	if w.hasTranslation {
		w.writeLine("translate " + formatFloat(w.translation.X) + " " + formatFloat(w.translation.Y) + " " + formatFloat(w.translation.Z))
	}
	if w.hasScale {
		w.writeLine("scale " + formatFloat(w.scale))
	}
	w.writeLine("data")

	w.writeBody()
	w.out.Flush()
	if w.out.Err() {
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}

func (w *Writer) writeLine(s string) {
	w.out.Write([]byte(s))
	w.out.WriteByte('\n')
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// writeBody emits the occupancy grid as (value,count) RLE runs, runs
// capped at 255 per spec §4.6's one-byte count field.
func (w *Writer) writeBody() {
	n := len(w.occupancy)
	i := 0
	for i < n {
		value := w.occupancy[i]
		j := i
		for j < n && w.occupancy[j] == value && j-i < 255 {
			j++
		}
		w.out.WriteByte(boolToByte(value))
		w.out.WriteByte(byte(j - i))
		i = j
	}
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
