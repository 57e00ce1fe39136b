package qb

import (
	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

type header struct {
	colorFormat ColorFormat
	zLeft       bool
	compressed  bool
	visMask     bool
	numMatrices uint32
}

type matrixState struct {
	header MatrixHeader
	volume uint64
	index  uint64
	x, y   uint32
	slice  uint32

	resumeCount uint32
	resumeData  uint32
}

// Reader decodes a QB stream, one matrix at a time, surfacing
// ResultReadObjectEnd at each matrix boundary (spec §4.7 state machine).
type Reader struct {
	in  stream.InputStream
	hdr header
	mat matrixState

	initialized bool
	matrixIndex uint32
}

// NewReader creates a QB reader over in.
func NewReader(in stream.InputStream) *Reader {
	return &Reader{in: in}
}

// Init parses the file header and the first matrix header.
func (r *Reader) Init() voxelio.ResultCode {
	if r.initialized {
		return voxelio.ResultWarningDoubleInit
	}
	r.initialized = true

	if code := r.deserializeHeader(); code.IsError() {
		return code
	}
	if r.hdr.numMatrices == 0 {
		return voxelio.ResultReadEnd
	}
	if code := r.deserializeMatrixHeader(); code.IsError() {
		return code
	}
	return voxelio.ResultReadObjectEnd
}

func (r *Reader) deserializeHeader() voxelio.ResultCode {
	version := stream.ReadUint32(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if version != currentVersion {
		return voxelio.ResultReadErrorUnknownVersion
	}

	colorFormat := stream.ReadUint32(r.in, voxelio.BigEndian)
	if colorFormat != uint32(ColorFormatRGBA) && colorFormat != uint32(ColorFormatBGRA) {
		return voxelio.ResultReadErrorUnknownFeature
	}
	r.hdr.colorFormat = ColorFormat(colorFormat)

	zOrient := stream.ReadUint32(r.in, voxelio.BigEndian)
	if zOrient != uint32(ZOrientLeft) && zOrient != uint32(ZOrientRight) {
		return voxelio.ResultReadErrorUnknownFeature
	}
	r.hdr.zLeft = ZOrient(zOrient) == ZOrientLeft

	compressed := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if compressed > 1 {
		return voxelio.ResultReadErrorUnknownFeature
	}
	r.hdr.compressed = compressed == 1

	visMask := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if visMask > 1 {
		return voxelio.ResultReadErrorUnknownFeature
	}
	r.hdr.visMask = visMask == 1

	r.hdr.numMatrices = stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	return voxelio.ResultOK
}

func (r *Reader) deserializeMatrixHeader() voxelio.ResultCode {
	nameLength := r.in.ReadByte()
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	name := stream.ReadString(r.in, int(nameLength))
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}

	var size [3]uint32
	for i := range size {
		size[i] = stream.ReadUint32(r.in, voxelio.LittleEndian)
	}
	var pos [3]int32
	for i := range pos {
		pos[i] = stream.ReadInt32(r.in, voxelio.LittleEndian)
	}
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}

	r.mat = matrixState{
		header: MatrixHeader{Name: name, Pos: pos, Size: size},
		volume: uint64(size[0]) * uint64(size[1]) * uint64(size[2]),
	}
	return voxelio.ResultOK
}

// CurrentMatrix returns the header of the matrix currently being read,
// valid after Init/Read32 reports ResultReadObjectEnd.
func (r *Reader) CurrentMatrix() MatrixHeader { return r.mat.header }

// Read32 fills buf with decoded voxels from the current matrix, moving
// to the next matrix (and surfacing one ResultReadObjectEnd) when the
// current one is exhausted, or ResultReadEnd once every matrix has been
// read (spec §4.7 state machine).
func (r *Reader) Read32(buf []voxel.Voxel32) voxelio.ReadResult {
	if !r.initialized {
		code := r.Init()
		if code.IsError() {
			return voxelio.ReadResultError(0, code, r.in.Position(), "qb init failed")
		}
		return voxelio.ReadResultOK(0, code)
	}

	var result voxelio.ReadResult
	if r.hdr.compressed {
		result = r.readCompressed(buf)
	} else {
		result = r.readUncompressed(buf)
	}

	if result.Code == voxelio.ResultReadObjectEnd {
		r.matrixIndex++
		if r.matrixIndex < r.hdr.numMatrices {
			if code := r.deserializeMatrixHeader(); code.IsError() {
				result.Code = code
				result.Err = &voxelio.Error{Location: r.in.Position(), Message: "failed to read next matrix header"}
			}
		} else {
			result.Code = voxelio.ResultReadEnd
		}
	}
	return result
}

func (r *Reader) readUncompressed(buf []voxel.Voxel32) voxelio.ReadResult {
	m := &r.mat
	size := m.header.Size
	var written uint64

	for m.slice < size[2] {
		z := m.slice
		if !r.hdr.zLeft {
			z = size[2] - 1 - m.slice
		}
		for ; m.y < size[1]; m.y++ {
			for ; m.x < size[0]; m.x++ {
				if m.index == m.volume {
					return voxelio.ReadResultOK(written, voxelio.ResultReadObjectEnd)
				}
				if written == uint64(len(buf)) {
					return voxelio.ReadResultOK(written, voxelio.ResultOK)
				}
				var raw [4]byte
				n := r.in.Read(raw[:])
				if n != 4 {
					return voxelio.ReadResultError(written, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated voxel word")
				}
				word := voxelio.BigEndian.Uint32(raw[:])
				m.index++
				color := decodeColor(word, r.hdr.colorFormat, r.hdr.visMask)
				if color.A != 0 {
					buf[written] = voxel.Voxel32{
						X:    m.header.Pos[0] + int32(m.x),
						Y:    m.header.Pos[1] + int32(m.y),
						Z:    m.header.Pos[2] + int32(z),
						ARGB: color.ARGB(),
					}
					written++
				}
			}
			m.x = 0
		}
		m.y = 0
		m.slice++
	}
	return voxelio.ReadResultOK(written, voxelio.ResultReadObjectEnd)
}

// writeRun emits up to count voxels of color starting at m.index along
// the current slice's row-major order, honoring visibility, and returns
// how many buffer slots and how much of count it consumed.
func (r *Reader) writeRun(buf []voxel.Voxel32, written uint64, z int32, color voxelio.Color32, count uint32) (newWritten uint64, consumed uint32) {
	m := &r.mat
	size := m.header.Size
	if color.A == 0 {
		m.index += uint64(count)
		return written, count
	}
	lim := count
	if avail := uint32(uint64(len(buf)) - written); avail < lim {
		lim = avail
	}
	var i uint32
	for ; i < lim; i++ {
		relIndex := m.index % (uint64(size[0]) * uint64(size[1]))
		relX := relIndex % uint64(size[0])
		relY := relIndex / uint64(size[0])
		buf[written] = voxel.Voxel32{
			X:    m.header.Pos[0] + int32(relX),
			Y:    m.header.Pos[1] + int32(relY),
			Z:    m.header.Pos[2] + z,
			ARGB: color.ARGB(),
		}
		written++
		m.index++
	}
	return written, lim
}

func (r *Reader) readCompressed(buf []voxel.Voxel32) voxelio.ReadResult {
	m := &r.mat
	size := m.header.Size
	var written uint64

	zOf := func(slice uint32) int32 {
		if r.hdr.zLeft {
			return int32(slice)
		}
		return int32(size[2] - 1 - slice)
	}

	if m.resumeCount != 0 {
		color := decodeColor(m.resumeData, r.hdr.colorFormat, r.hdr.visMask)
		newWritten, consumed := r.writeRun(buf, written, zOf(m.slice), color, m.resumeCount)
		written = newWritten
		m.resumeCount -= consumed
		if m.resumeCount != 0 || written == uint64(len(buf)) {
			return voxelio.ReadResultOK(written, voxelio.ResultOK)
		}
	}

	for m.slice < size[2] {
		z := zOf(m.slice)
	tokenLoop:
		for {
			var raw [4]byte
			n := r.in.Read(raw[:])
			if n != 4 {
				return voxelio.ReadResultError(written, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated compressed token")
			}
			littleWord := voxelio.LittleEndian.Uint32(raw[:])

			switch littleWord {
			case tokenNextSliceFlag:
				break tokenLoop
			case tokenCodeFlag:
				count := stream.ReadUint32(r.in, voxelio.LittleEndian)
				colorWord := stream.ReadUint32(r.in, voxelio.BigEndian)
				if r.in.EOF() {
					return voxelio.ReadResultError(written, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated CODEFLAG run")
				}
				color := decodeColor(colorWord, r.hdr.colorFormat, r.hdr.visMask)
				newWritten, consumed := r.writeRun(buf, written, z, color, count)
				written = newWritten
				if written == uint64(len(buf)) {
					m.resumeCount = count - consumed
					m.resumeData = colorWord
					return voxelio.ReadResultOK(written, voxelio.ResultOK)
				}
			default:
				colorWord := reverseBytes32(littleWord)
				color := decodeColor(colorWord, r.hdr.colorFormat, r.hdr.visMask)
				newWritten, _ := r.writeRun(buf, written, z, color, 1)
				written = newWritten
				if written == uint64(len(buf)) {
					return voxelio.ReadResultOK(written, voxelio.ResultOK)
				}
			}
		}
		m.slice++
	}
	return voxelio.ReadResultOK(written, voxelio.ResultReadObjectEnd)
}

// Progress reports fractional completion across all matrices combined,
// or 0 before Init.
func (r *Reader) Progress() float32 {
	if !r.initialized || r.hdr.numMatrices == 0 {
		return 0
	}
	return (float32(r.matrixIndex) + float32(r.mat.index)/float32(maxU64(r.mat.volume, 1))) / float32(r.hdr.numMatrices)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
