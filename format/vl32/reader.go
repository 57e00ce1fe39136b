package vl32

import (
	"math"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// Reader decodes a vl32 stream: a flat run of big-endian (x,y,z,argb)
// records with no header, read until EOF.
type Reader struct {
	in          stream.InputStream
	initialized bool
}

// NewReader creates a vl32 reader over in.
func NewReader(in stream.InputStream) *Reader {
	return &Reader{in: in}
}

// Init is a no-op: vl32 carries no header to parse. Calling Init again
// after a successful call is a no-op returning ResultWarningDoubleInit.
func (r *Reader) Init() voxelio.ResultCode {
	if r.initialized {
		return voxelio.ResultWarningDoubleInit
	}
	r.initialized = true
	return voxelio.ResultOK
}

// Read32 fills buf with records decoded straight off the stream,
// stopping at the first EOF encountered between records.
func (r *Reader) Read32(buf []voxel.Voxel32) voxelio.ReadResult {
	if !r.initialized {
		code := r.Init()
		return voxelio.ReadResultOK(0, code)
	}

	var written uint64
	for written < uint64(len(buf)) {
		v, code := r.readVoxel()
		if r.in.EOF() {
			return voxelio.ReadResultOK(written, voxelio.ResultReadEnd)
		}
		if code.IsError() {
			return voxelio.ReadResultError(written, code, r.in.Position(), "vl32 record read failed")
		}
		buf[written] = v
		written++
	}
	return voxelio.ReadResultOK(written, voxelio.ResultOK)
}

func (r *Reader) readVoxel() (voxel.Voxel32, voxelio.ResultCode) {
	x := stream.ReadInt32(r.in, voxelio.BigEndian)
	y := stream.ReadInt32(r.in, voxelio.BigEndian)
	z := stream.ReadInt32(r.in, voxelio.BigEndian)
	argb := stream.ReadUint32(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxel.Voxel32{}, voxelio.ResultOK
	}
	if r.in.Err() {
		return voxel.Voxel32{}, voxelio.ResultReadErrorIO
	}
	return voxel.Voxel32{X: x, Y: y, Z: z, ARGB: argb}, voxelio.ResultOK
}

// Progress always reports NaN: vl32 carries no declared record count,
// so total work is unknown until EOF.
func (r *Reader) Progress() float32 {
	return float32(math.NaN())
}
