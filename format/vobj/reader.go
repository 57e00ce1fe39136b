package vobj

import (
	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// groupFrame is one entry of the group stack: its cumulative world
// translation (parent offset plus this group's own pos) and the set
// of child group names already seen directly under it, for the
// sibling-uniqueness check (spec §4.9 "Group stack").
type groupFrame struct {
	name       string
	offset     [3]int64
	childNames map[string]bool
}

// dataState is the resumable cursor into the data block (LIST or a
// series of ARRAY_POSITIONED/ARRAY_TILED entries) currently owned by
// the active group, or by the file itself when ungrouped.
type dataState struct {
	format DataFormat

	// LIST: count of voxel records. Arrays: count of array entries.
	index, limit uint32

	// ARRAY_TILED shares one dims vector across every entry, read once
	// before the entry loop starts.
	tileDims [3]uint64

	// current array entry.
	entryStarted bool
	arrPos       [3]int64
	arrDims      [3]uint64
	arrIndex     uint64
	x, y, z      uint64
	existArr     []byte
}

// Reader decodes a VOBJ stream, emitting voxels from each group's (or
// the file's single ungrouped) data block in turn (spec §4.9).
type Reader struct {
	in          stream.InputStream
	initialized bool

	ext         extensions
	colorFormat ColorFormat
	pal         palette

	groups                 []groupFrame
	groupIndex, groupLimit uint32

	data   dataState
	helper voxel.WriteHelper
}

// NewReader creates a VOBJ reader over in.
func NewReader(in stream.InputStream) *Reader {
	return &Reader{
		in:     in,
		groups: []groupFrame{{childNames: map[string]bool{}}},
	}
}

// Init parses the header (extensions, color format, palette, metadata)
// and begins the first group's (or the file's single) data block.
func (r *Reader) Init() voxelio.ResultCode {
	if r.initialized {
		return voxelio.ResultWarningDoubleInit
	}
	r.initialized = true

	if code := r.readHeader(); code.IsError() {
		return code
	}

	if r.ext.group {
		r.groupLimit = stream.ReadUint32(r.in, voxelio.BigEndian)
		if r.in.EOF() {
			return voxelio.ResultReadErrorUnexpectedEOF
		}
		if r.groupLimit == 0 {
			return voxelio.ResultReadEnd
		}
		return r.beginNextGroup()
	}

	df, code := r.readDataFormat()
	if code.IsError() {
		return code
	}
	return r.beginData(df)
}

func (r *Reader) readHeader() voxelio.ResultCode {
	magicGot := stream.ReadString(r.in, len(magic))
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if magicGot != magic {
		return voxelio.ResultReadErrorUnexpectedMagic
	}

	if code := r.skipPString(); code.IsError() { // supportUrl
		return code
	}
	if code := r.readExtensions(); code.IsError() {
		return code
	}
	if code := r.readColorFormat(); code.IsError() {
		return code
	}
	if code := r.readPalette(); code.IsError() {
		return code
	}

	metaSize := stream.ReadUint32(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if metaSize != 0 {
		if code := r.skipPString(); code.IsError() { // vendorName
			return code
		}
		r.in.SeekRelative(int64(metaSize))
	}
	return voxelio.ResultOK
}

func (r *Reader) readPString() (string, voxelio.ResultCode) {
	n := stream.ReadUint16(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return "", voxelio.ResultReadErrorUnexpectedEOF
	}
	s := stream.ReadString(r.in, int(n))
	if r.in.EOF() {
		return "", voxelio.ResultReadErrorUnexpectedEOF
	}
	return s, voxelio.ResultOK
}

func (r *Reader) skipPString() voxelio.ResultCode {
	n := stream.ReadUint16(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	r.in.SeekRelative(int64(n))
	return voxelio.ResultOK
}

func (r *Reader) readExtensions() voxelio.ResultCode {
	n := stream.ReadUint16(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	seen := map[string]bool{}
	for i := 0; i < int(n); i++ {
		name, code := r.readPString()
		if code.IsError() {
			return code
		}
		if !recognizedExtensions[name] {
			return voxelio.ResultReadErrorUnsupportedFeature
		}
		seen[name] = true
	}
	r.ext = extensions{
		debug: seen[extDebug],
		exArr: seen[extExistenceArray],
		group: seen[extGroups],
		arr16: seen[ext16BitArray],
		arr32: seen[ext32BitArray],
	}
	if r.ext.arr16 && r.ext.arr32 {
		return voxelio.ResultReadErrorTextParseFail
	}
	return voxelio.ResultOK
}

func (r *Reader) readColorFormat() voxelio.ResultCode {
	b := r.in.ReadByte()
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	cf := ColorFormat(b)
	if !recognizedColorFormats[cf] {
		return voxelio.ResultReadErrorUnexpectedSymbol
	}
	r.colorFormat = cf
	return voxelio.ResultOK
}

func (r *Reader) readPalette() voxelio.ResultCode {
	bits := r.in.ReadByte()
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if !recognizedPaletteBits[bits] {
		return voxelio.ResultReadErrorUnexpectedSymbol
	}
	r.pal.bits = bits
	if bits == 0 {
		r.pal.size = 0
		return voxelio.ResultOK
	}

	switch bits {
	case 8:
		r.pal.size = zeroToFull(uint64(r.in.ReadByte()), 8)
	case 16:
		r.pal.size = zeroToFull(uint64(stream.ReadUint16(r.in, voxelio.BigEndian)), 16)
	case 32:
		r.pal.size = zeroToFull(uint64(stream.ReadUint32(r.in, voxelio.BigEndian)), 32)
	}
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}

	n := r.pal.size * uint64(r.colorFormat.byteCount())
	content := make([]byte, n)
	got := r.in.Read(content)
	if uint64(got) != n || r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	r.pal.content = content
	return voxelio.ResultOK
}

func (r *Reader) readDataFormat() (DataFormat, voxelio.ResultCode) {
	b := r.in.ReadByte()
	if r.in.EOF() {
		return 0, voxelio.ResultReadErrorUnexpectedEOF
	}
	df := DataFormat(b)
	if !recognizedDataFormats[df] {
		return 0, voxelio.ResultReadErrorUnsupportedFeature
	}
	return df, voxelio.ResultOK
}

// readDimensions reads a 3-component size vector whose field width is
// governed by the arr16/arr32 extensions (default u8), mapping a zero
// component to 2^width (spec §4.9 "Dimensions").
func (r *Reader) readDimensions() ([3]uint64, voxelio.ResultCode) {
	var dims [3]uint64
	switch {
	case r.ext.arr32:
		for i := range dims {
			dims[i] = zeroToFull(uint64(stream.ReadUint32(r.in, voxelio.BigEndian)), 32)
		}
	case r.ext.arr16:
		for i := range dims {
			dims[i] = zeroToFull(uint64(stream.ReadUint16(r.in, voxelio.BigEndian)), 16)
		}
	default:
		for i := range dims {
			dims[i] = zeroToFull(uint64(r.in.ReadByte()), 8)
		}
	}
	if r.in.EOF() {
		return dims, voxelio.ResultReadErrorUnexpectedEOF
	}
	return dims, voxelio.ResultOK
}

func readInt64(in stream.InputStream, order voxelio.Endian) int64 {
	return int64(stream.ReadUint64(in, order))
}

func (r *Reader) currentGroupOffset() [3]int64 {
	return r.groups[len(r.groups)-1].offset
}

// beginNextGroup reads one flat group record's popCount/name/pos, pops
// and pushes the group stack accordingly, and begins its dataFormat
// (spec §4.9 "Group stack").
func (r *Reader) beginNextGroup() voxelio.ResultCode {
	popCount := stream.ReadUint16(r.in, voxelio.BigEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if int(popCount) >= len(r.groups) {
		return voxelio.ResultReadErrorParseFail
	}
	r.groups = r.groups[:len(r.groups)-int(popCount)]

	name, code := r.readPString()
	if code.IsError() {
		return code
	}

	var pos [3]int64
	for i := range pos {
		pos[i] = int64(stream.ReadInt32(r.in, voxelio.BigEndian))
	}
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}

	parent := &r.groups[len(r.groups)-1]
	if name != "" {
		if parent.childNames[name] {
			return voxelio.ResultReadErrorDuplicateData
		}
		parent.childNames[name] = true
	}
	r.groups = append(r.groups, groupFrame{
		name:       name,
		offset:     [3]int64{parent.offset[0] + pos[0], parent.offset[1] + pos[1], parent.offset[2] + pos[2]},
		childNames: map[string]bool{},
	})

	df, code := r.readDataFormat()
	if code.IsError() {
		return code
	}
	return r.beginData(df)
}

// beginData resets the data cursor for a newly-entered data block and
// reads whatever header fields that format requires up front.
func (r *Reader) beginData(df DataFormat) voxelio.ResultCode {
	r.data = dataState{format: df}
	switch df {
	case DataFormatEmpty:
		return voxelio.ResultOK
	case DataFormatList, DataFormatArrayPositioned:
		r.data.limit = stream.ReadUint32(r.in, voxelio.BigEndian)
	case DataFormatArrayTiled:
		dims, code := r.readDimensions()
		if code.IsError() {
			return code
		}
		r.data.tileDims = dims
		r.data.limit = stream.ReadUint32(r.in, voxelio.BigEndian)
	}
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	return voxelio.ResultOK
}

// readVoxel decodes the next voxel's color: inline if the file carries
// no palette, the sole entry if the palette has exactly one color, or
// an indexed lookup otherwise (spec §4.9 "Palette").
func (r *Reader) readVoxel() (uint32, voxelio.ResultCode) {
	n := r.colorFormat.byteCount()

	if r.pal.bits == 0 {
		buf := make([]byte, n)
		got := r.in.Read(buf)
		if got != n || r.in.EOF() {
			return 0, voxelio.ResultReadErrorUnexpectedEOF
		}
		return decodeColor(r.colorFormat, buf).ARGB(), voxelio.ResultOK
	}
	if r.pal.size == 1 {
		return decodeColor(r.colorFormat, r.pal.content).ARGB(), voxelio.ResultOK
	}

	var index uint64
	switch r.pal.bits {
	case 8:
		index = uint64(r.in.ReadByte())
	case 16:
		index = uint64(stream.ReadUint16(r.in, voxelio.BigEndian))
	case 32:
		index = uint64(stream.ReadUint32(r.in, voxelio.BigEndian))
	}
	if r.in.EOF() {
		return 0, voxelio.ResultReadErrorUnexpectedEOF
	}
	off := index * uint64(n)
	if off+uint64(n) > uint64(len(r.pal.content)) {
		return 0, voxelio.ResultReadErrorValueOutOfBounds
	}
	return decodeColor(r.colorFormat, r.pal.content[off:off+uint64(n)]).ARGB(), voxelio.ResultOK
}

// Read64 fills buf with decoded voxels, advancing through the current
// data block and on to subsequent groups (when the group extension is
// in effect) as each is exhausted (spec §4.9, §5 "Ordering
// guarantees").
func (r *Reader) Read64(buf []voxel.Voxel64) voxelio.ReadResult {
	if !r.initialized {
		code := r.Init()
		if code.IsError() {
			return voxelio.ReadResultError(0, code, r.in.Position(), "vobj init failed")
		}
		return voxelio.ReadResultOK(0, code)
	}

	r.helper.Reset64(buf)
	for {
		result := r.readCurrentData()
		if result.Code.IsError() {
			return result
		}
		if result.Code != voxelio.ResultReadObjectEnd {
			return result
		}

		if !r.ext.group {
			return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadEnd)
		}
		if r.groupIndex+1 >= r.groupLimit {
			return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadEnd)
		}
		r.groupIndex++
		if code := r.beginNextGroup(); code.IsError() {
			return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), code, r.in.Position(), "vobj group header failed")
		}
		if r.helper.IsFull() {
			return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultOK)
		}
	}
}

func (r *Reader) readCurrentData() voxelio.ReadResult {
	switch r.data.format {
	case DataFormatEmpty:
		return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadObjectEnd)
	case DataFormatList:
		return r.readList()
	case DataFormatArrayPositioned:
		return r.readArraySeries(false)
	case DataFormatArrayTiled:
		return r.readArraySeries(true)
	default:
		return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), voxelio.ResultInternalError, r.in.Position(), "unknown data format")
	}
}

func (r *Reader) readList() voxelio.ReadResult {
	base := r.currentGroupOffset()
	for r.data.index < r.data.limit {
		if r.helper.IsFull() {
			return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultOK)
		}

		var pos [3]int64
		for i := range pos {
			pos[i] = int64(stream.ReadInt32(r.in, voxelio.BigEndian))
		}
		if r.in.EOF() {
			return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated voxel position")
		}
		argb, code := r.readVoxel()
		if code.IsError() {
			return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), code, r.in.Position(), "truncated voxel color")
		}
		r.helper.Write64(voxel.Voxel64{X: base[0] + pos[0], Y: base[1] + pos[1], Z: base[2] + pos[2], ARGB: argb})
		r.data.index++
	}
	return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadObjectEnd)
}

func (r *Reader) readArraySeries(tiled bool) voxelio.ReadResult {
	base := r.currentGroupOffset()
	for r.data.index < r.data.limit {
		if !r.data.entryStarted {
			if code := r.beginArrayEntry(tiled); code.IsError() {
				return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), code, r.in.Position(), "array entry header failed")
			}
		}

		result := r.readArrayEntryContent(base)
		if result.Code.IsError() {
			return result
		}
		if result.Code != voxelio.ResultReadObjectEnd {
			return result
		}
		r.data.entryStarted = false
		r.data.index++
	}
	return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadObjectEnd)
}

func (r *Reader) beginArrayEntry(tiled bool) voxelio.ResultCode {
	var rawPos [3]int64
	for i := range rawPos {
		rawPos[i] = readInt64(r.in, voxelio.BigEndian)
	}
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}

	var dims [3]uint64
	if tiled {
		dims = r.data.tileDims
		rawPos = [3]int64{rawPos[0] * int64(dims[0]), rawPos[1] * int64(dims[1]), rawPos[2] * int64(dims[2])}
	} else {
		d, code := r.readDimensions()
		if code.IsError() {
			return code
		}
		dims = d
	}

	r.data.arrPos = rawPos
	r.data.arrDims = dims
	r.data.arrIndex = 0
	r.data.x, r.data.y, r.data.z = 0, 0, 0
	r.data.entryStarted = true
	r.data.existArr = nil

	if r.ext.exArr {
		cellCount := dims[0] * dims[1] * dims[2]
		existenceBytes := divCeil(uint32(cellCount), 8)
		buf := make([]byte, existenceBytes)
		got := r.in.Read(buf)
		if uint32(got) != existenceBytes || r.in.EOF() {
			return voxelio.ResultReadErrorUnexpectedEOF
		}
		r.data.existArr = buf
		stream.ReadUint32(r.in, voxelio.BigEndian) // present-voxel count, informational only
		if r.in.EOF() {
			return voxelio.ResultReadErrorUnexpectedEOF
		}
	}
	return voxelio.ResultOK
}

// readArrayEntryContent walks the current array entry's dims³ cells in
// z-major order, consulting the existence bitmap (if any) before
// reading each present voxel's color (spec §4.9 "Array content").
func (r *Reader) readArrayEntryContent(base [3]int64) voxelio.ReadResult {
	d := &r.data
	limX, limY, limZ := d.arrDims[0], d.arrDims[1], d.arrDims[2]

	for ; d.z < limZ; d.z++ {
		for ; d.y < limY; d.y++ {
			for ; d.x < limX; d.x++ {
				if r.helper.IsFull() {
					return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultOK)
				}

				present := true
				if d.existArr != nil {
					superIndex := d.arrIndex / 8
					maskBit := byte(0b10000000) >> (d.arrIndex % 8)
					present = superIndex < uint64(len(d.existArr)) && d.existArr[superIndex]&maskBit != 0
					d.arrIndex++
				}
				if !present {
					continue
				}

				argb, code := r.readVoxel()
				if code.IsError() {
					return voxelio.ReadResultError(uint64(r.helper.VoxelsWritten()), code, r.in.Position(), "truncated array voxel")
				}
				r.helper.Write64(voxel.Voxel64{
					X:    base[0] + d.arrPos[0] + int64(d.x),
					Y:    base[1] + d.arrPos[1] + int64(d.y),
					Z:    base[2] + d.arrPos[2] + int64(d.z),
					ARGB: argb,
				})
			}
			d.x = 0
		}
		d.y = 0
	}
	return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadObjectEnd)
}

// Progress reports the fraction of the current data block's declared
// count consumed; for grouped files, the completed-group fraction is
// blended in. Data carrying no count up front (EMPTY data) reports only
// the completed-group fraction (0 when ungrouped).
func (r *Reader) Progress() float32 {
	if !r.initialized {
		return 0
	}
	groupSpan := float32(1)
	groupBase := float32(0)
	if r.ext.group && r.groupLimit > 0 {
		groupSpan = 1 / float32(r.groupLimit)
		groupBase = float32(r.groupIndex) * groupSpan
	}
	if r.data.limit == 0 {
		return groupBase
	}
	return groupBase + groupSpan*float32(r.data.index)/float32(r.data.limit)
}
