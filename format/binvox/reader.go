package binvox

import (
	"strconv"
	"strings"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// Reader decodes a Binvox stream into Voxel32s, all sharing one
// configurable uniform color (Binvox carries no per-voxel color data).
type Reader struct {
	in stream.InputStream

	dim         Dims
	dimSet      bool
	translation Translation
	scale       float32

	color uint32

	initialized bool
	lineNum     uint64
	volume      uint64
	index       uint64

	resumeCount uint32
}

// NewReader creates a Binvox reader over in. Color defaults to opaque
// white, matching the original format's convention.
func NewReader(in stream.InputStream) *Reader {
	return &Reader{in: in, color: defaultColor}
}

// SetColor sets the uniform color assigned to every voxel this reader
// subsequently emits.
func (r *Reader) SetColor(argb uint32) { r.color = argb }

// Dims returns the parsed dim header field, valid only after Init.
func (r *Reader) Dims() Dims { return r.dim }

// Init parses the magic, version, and header fields. Calling Init
// again after a successful call is a no-op returning
// ResultWarningDoubleInit.
func (r *Reader) Init() voxelio.ResultCode {
	if r.initialized {
		return voxelio.ResultWarningDoubleInit
	}
	r.initialized = true

	if code := r.readMagicAndVersion(); code.IsError() {
		return code
	}
	if code := r.readHeaderFields(); code.IsError() {
		return code
	}
	if !r.dimSet {
		return voxelio.ResultReadErrorMissingData
	}
	r.volume = uint64(r.dim.X) * uint64(r.dim.Y) * uint64(r.dim.Z)
	if r.volume == 0 {
		return voxelio.ResultReadEnd
	}
	return voxelio.ResultOK
}

func (r *Reader) readMagicAndVersion() voxelio.ResultCode {
	line := stream.ReadStringUntil(r.in, 64, ' ')
	if line != magic {
		return voxelio.ResultReadErrorUnexpectedMagic
	}

	var buf []byte
	buf = stream.ReadLine(r.in, buf[:0])
	versionLine := strings.TrimSpace(string(buf))
	v, err := strconv.Atoi(versionLine)
	if err != nil {
		return voxelio.ResultReadErrorParseFail
	}
	if v != version {
		return voxelio.ResultReadErrorUnknownVersion
	}
	r.lineNum++
	return voxelio.ResultOK
}

func (r *Reader) readHeaderFields() voxelio.ResultCode {
	var buf []byte
	for {
		buf = stream.ReadLine(r.in, buf[:0])
		if r.in.EOF() && len(buf) == 0 {
			return voxelio.ResultReadErrorUnexpectedEOF
		}
		r.lineNum++

		code, done := r.parseHeaderLine(string(buf))
		if code.IsError() {
			return code
		}
		if done {
			return voxelio.ResultOK
		}
	}
}

// parseHeaderLine returns done=true once the "data" terminator line is
// seen.
func (r *Reader) parseHeaderLine(line string) (voxelio.ResultCode, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return voxelio.ResultReadErrorParseFail, false
	}
	switch fields[0] {
	case "data":
		return voxelio.ResultOK, true
	case "dim":
		if len(fields) != 4 {
			return voxelio.ResultReadErrorParseFail, false
		}
		x, errX := strconv.ParseUint(fields[1], 10, 32)
		y, errY := strconv.ParseUint(fields[2], 10, 32)
		z, errZ := strconv.ParseUint(fields[3], 10, 32)
		if errX != nil || errY != nil || errZ != nil {
			return voxelio.ResultReadErrorParseFail, false
		}
		r.dim = Dims{X: uint32(x), Y: uint32(y), Z: uint32(z)}
		r.dimSet = true
		return voxelio.ResultOK, false
	case "translate":
		if len(fields) != 4 {
			return voxelio.ResultReadErrorParseFail, false
		}
		x, errX := strconv.ParseFloat(fields[1], 32)
		y, errY := strconv.ParseFloat(fields[2], 32)
		z, errZ := strconv.ParseFloat(fields[3], 32)
		if errX != nil || errY != nil || errZ != nil {
			return voxelio.ResultReadErrorParseFail, false
		}
		r.translation = Translation{X: float32(x), Y: float32(y), Z: float32(z)}
		return voxelio.ResultOK, false
	case "scale":
		if len(fields) != 2 {
			return voxelio.ResultReadErrorParseFail, false
		}
		s, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return voxelio.ResultReadErrorParseFail, false
		}
		r.scale = float32(s)
		return voxelio.ResultOK, false
	default:
		return voxelio.ResultReadErrorUnexpectedSymbol, false
	}
}

// Read32 fills buf with decoded voxels (spec §4.5 AbstractReader
// contract).
func (r *Reader) Read32(buf []voxel.Voxel32) voxelio.ReadResult {
	if !r.initialized {
		code := r.Init()
		if code.IsError() {
			return voxelio.ReadResultError(0, code, r.lineNum, "binvox init failed")
		}
		if code == voxelio.ResultReadEnd {
			return voxelio.ReadResultOK(0, voxelio.ResultReadEnd)
		}
	}

	var written uint64

	if r.resumeCount != 0 {
		r.drainResume(buf, &written)
		if r.resumeCount != 0 || written == uint64(len(buf)) {
			return voxelio.ReadResultOK(written, voxelio.ResultReadBufferFull)
		}
	}

	for {
		if r.index == r.volume {
			return voxelio.ReadResultOK(written, voxelio.ResultReadEnd)
		}
		if written == uint64(len(buf)) {
			return voxelio.ReadResultOK(written, voxelio.ResultReadBufferFull)
		}

		var run [2]byte
		n := r.in.Read(run[:])
		if n != 2 {
			return voxelio.ReadResultError(written, voxelio.ResultReadErrorUnexpectedEOF, r.lineNum, "truncated RLE run")
		}
		value, count := run[0], uint32(run[1])

		if r.index+uint64(count) > r.volume {
			return voxelio.ReadResultError(written, voxelio.ResultReadErrorParseFail, r.lineNum, "voxel run extends beyond declared volume")
		}

		switch value {
		case 0:
			r.index += uint64(count)
			continue
		case 1:
			remaining := count
			r.emitRun(buf, &written, &remaining)
			if remaining != 0 {
				r.resumeCount = remaining
				return voxelio.ReadResultOK(written, voxelio.ResultReadBufferFull)
			}
		default:
			return voxelio.ReadResultError(written, voxelio.ResultReadErrorUnexpectedSymbol, r.lineNum, "RLE value must be 0 or 1")
		}
	}
}

func (r *Reader) emitRun(buf []voxel.Voxel32, written *uint64, remaining *uint32) {
	for *remaining != 0 && *written != uint64(len(buf)) {
		x, y, z := indexToPos(r.index, r.dim)
		buf[*written] = voxel.Voxel32{X: int32(x), Y: int32(y), Z: int32(z), ARGB: r.color}
		*written++
		r.index++
		*remaining--
	}
}

func (r *Reader) drainResume(buf []voxel.Voxel32, written *uint64) {
	remaining := r.resumeCount
	r.emitRun(buf, written, &remaining)
	r.resumeCount = remaining
}

// Progress reports fractional completion, or 0 before Init and for a
// zero-volume grid.
func (r *Reader) Progress() float32 {
	if !r.initialized || r.volume == 0 {
		return float32(0)
	}
	return float32(r.index) / float32(r.volume)
}
