package vox

import (
	"sort"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/palette"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// DefaultChunkSize is the edge length of each cubic model tile the
// writer splits the scene into (spec §4.8 "Writer").
const DefaultChunkSize = 126

type tilePos [3]int32

// tile accumulates the voxels of one chunkSize³ model, keyed by their
// packed (x<<24|y<<16|z<<8|paletteIndex) word, deduplicating exact
// repeats the way a std::set would.
type tile struct {
	voxels map[uint32]struct{}
}

// Writer tiles an unordered voxel stream into chunkSize³ models under a
// single nGRP, reducing the supplied palette to at most 255 colors
// (spec §4.8 "Writer").
type Writer struct {
	out        stream.OutputStream
	chunkSize  int32
	fixGravity bool

	pal   *palette.Palette
	tiles map[tilePos]*tile

	paletteReduction []uint32
	reducedPalette   *palette.Palette

	state writerState
}

type writerState int

const (
	writerUninitialized writerState = iota
	writerInitialized
	writerFinalized
)

// NewWriter creates a VOX writer over out, tiling at chunkSize (pass
// DefaultChunkSize if unsure). fixGravity mirrors the reader's option:
// when true, incoming Y/Z are swapped and Z negated before tiling, so
// a fixGravity round trip through Reader/Writer is the identity.
func NewWriter(out stream.OutputStream, chunkSize int32, fixGravity bool) *Writer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Writer{out: out, chunkSize: chunkSize, fixGravity: fixGravity, tiles: make(map[tilePos]*tile)}
}

// Palette returns the writer's palette handle; colors must be inserted
// before Finalize.
func (w *Writer) Palette() *palette.Palette {
	if w.pal == nil {
		w.pal = palette.New()
	}
	return w.pal
}

// SetCanvasDimensions is a no-op: VOX's writer tiles voxels as they
// arrive and has no use for a predeclared bounding box.
func (w *Writer) SetCanvasDimensions(voxel.Dimensions) bool { return false }

// Init reduces the supplied palette to at most 255 representative
// colors (index 0 is reserved) and writes the magic/version header.
func (w *Writer) Init() voxelio.ResultCode {
	if w.state == writerInitialized {
		return voxelio.ResultWarningDoubleInit
	}
	if w.state == writerFinalized {
		return voxelio.ResultInternalError
	}
	if w.pal == nil || w.pal.Size() == 0 {
		return voxelio.ResultUserErrorMissingPalette
	}
	w.state = writerInitialized

	mapping, _ := w.pal.Reduce(paletteSize - 1)
	w.paletteReduction = mapping
	w.reducedPalette = w.pal.CreateReducedPaletteAndStoreMapping(mapping)

	w.out.Write([]byte(magic))
	stream.WriteUint32(w.out, voxelio.LittleEndian, currentVersion)
	return voxelio.ResultOK
}

// Write32 bins each voxel into its containing tile, reducing its color
// through the palette mapping established at Init.
func (w *Writer) Write32(buf []voxel.Voxel32) voxelio.ResultCode {
	if w.state == writerUninitialized {
		if code := w.Init(); code.IsError() {
			return code
		}
	}
	if w.state == writerFinalized {
		return voxelio.ResultUserErrorInvalidFormat
	}

	for _, v := range buf {
		pos := [3]int32{v.X, v.Y, v.Z}
		if w.fixGravity {
			pos[1], pos[2] = -pos[2], pos[1]
		}

		tp := tilePos{divFloor(pos[0], w.chunkSize), divFloor(pos[1], w.chunkSize), divFloor(pos[2], w.chunkSize)}
		local := [3]uint8{
			uint8(pos[0] - tp[0]*w.chunkSize),
			uint8(pos[1] - tp[1]*w.chunkSize),
			uint8(pos[2] - tp[2]*w.chunkSize),
		}

		rawIndex, ok := w.pal.IndexOf(voxelio.ColorFromARGB(v.ARGB))
		if !ok {
			return voxelio.ResultUserErrorMissingPalette
		}
		representativeColor := w.pal.ColorOf(w.paletteReduction[rawIndex])
		reducedIndex, _ := w.reducedPalette.IndexOf(representativeColor)
		// index 0 is reserved; every representative shifts up by one.
		index8 := uint8((reducedIndex + 1) % paletteSize)

		xyzi := uint32(local[0])<<24 | uint32(local[1])<<16 | uint32(local[2])<<8 | uint32(index8)

		t := w.tiles[tp]
		if t == nil {
			t = &tile{voxels: make(map[uint32]struct{})}
			w.tiles[tp] = t
		}
		t.voxels[xyzi] = struct{}{}
	}
	return voxelio.ResultOK
}

func (w *Writer) sortedTilePositions() []tilePos {
	positions := make([]tilePos, 0, len(w.tiles))
	for p := range w.tiles {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	return positions
}

func writeChunkHeader(out stream.OutputStream, kind ChunkType, selfSize, childrenSize uint32) {
	stream.WriteUint32(out, voxelio.BigEndian, uint32(kind))
	stream.WriteUint32(out, voxelio.LittleEndian, selfSize)
	stream.WriteUint32(out, voxelio.LittleEndian, childrenSize)
}

func writeVoxString(out stream.OutputStream, s string) {
	stream.WriteUint32(out, voxelio.LittleEndian, uint32(len(s)))
	out.Write([]byte(s))
}

// Finalize emits MAIN's children: one (SIZE,XYZI) pair per tile, the
// scene graph wrapping each tile in its own translated nTRN/nSHP under
// a single root nGRP, and the reduced RGBA palette. MAIN's childrenSize
// is backpatched once the total size is known; its selfSize stays 0
// (spec §4.8 "Writer").
func (w *Writer) Finalize() voxelio.ResultCode {
	if w.state == writerUninitialized {
		if code := w.Init(); code.IsError() {
			return code
		}
	}
	if w.state == writerFinalized {
		return voxelio.ResultWarningNOP
	}
	w.state = writerFinalized

	mainSizePos := w.out.Position()
	writeChunkHeader(w.out, chunkMAIN, 0, 0)
	bodyStart := w.out.Position()

	positions := w.sortedTilePositions()
	w.writeModels(positions)
	w.writeSceneGraph(positions)
	w.writeRGBA()

	bodyEnd := w.out.Position()
	w.out.SeekAbsolute(mainSizePos + 4)
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0)
	stream.WriteUint32(w.out, voxelio.LittleEndian, uint32(bodyEnd-bodyStart))
	w.out.SeekAbsolute(bodyEnd)

	w.out.Flush()
	if w.out.Err() {
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}

func (w *Writer) writeModels(positions []tilePos) {
	size := uint32(w.chunkSize)
	for _, p := range positions {
		t := w.tiles[p]
		writeChunkHeader(w.out, chunkSIZE, 12, 0)
		stream.WriteUint32(w.out, voxelio.LittleEndian, size)
		stream.WriteUint32(w.out, voxelio.LittleEndian, size)
		stream.WriteUint32(w.out, voxelio.LittleEndian, size)

		voxelCount := uint32(len(t.voxels))
		selfSize := (voxelCount + 1) * 4
		writeChunkHeader(w.out, chunkXYZI, selfSize, 0)
		stream.WriteUint32(w.out, voxelio.LittleEndian, voxelCount)

		words := make([]uint32, 0, voxelCount)
		for xyzi := range t.voxels {
			words = append(words, xyzi)
		}
		sort.Slice(words, func(i, j int) bool { return words[i] < words[j] })
		for _, xyzi := range words {
			stream.WriteUint32(w.out, voxelio.BigEndian, xyzi)
		}
	}
}

func (w *Writer) writeSceneGraph(positions []tilePos) {
	const rootID = 0
	const groupID = 1
	const firstTransformID = 2

	shapeCount := uint32(len(positions))
	toCenter := w.chunkSize / 2

	w.writeNodeTransform(rootID, groupID, [3]int32{0, 0, 0})
	w.writeNodeGroup(groupID, firstTransformID, shapeCount, 2)

	nodeID := uint32(firstTransformID)
	for modelID, p := range positions {
		translation := [3]int32{p[0]*w.chunkSize + toCenter, p[1]*w.chunkSize + toCenter, p[2]*w.chunkSize + toCenter}
		w.writeNodeTransform(nodeID, nodeID+1, translation)
		w.writeNodeShape(nodeID+1, uint32(modelID))
		nodeID += 2
	}
}

func (w *Writer) writeNodeTransform(id, childID uint32, translation [3]int32) {
	const identityRotation = "4"
	t := itoa32(translation[0]) + " " + itoa32(translation[1]) + " " + itoa32(translation[2])

	selfSize := uint32(11*4 + 2 + 1 + 2 + len(t))
	writeChunkHeader(w.out, chunkNTRN, selfSize, 0)
	stream.WriteUint32(w.out, voxelio.LittleEndian, id)
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // empty node attribute dict
	stream.WriteUint32(w.out, voxelio.LittleEndian, childID)
	stream.WriteInt32(w.out, voxelio.LittleEndian, -1) // reserved id
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // layer id
	stream.WriteUint32(w.out, voxelio.LittleEndian, 1) // numFrames

	stream.WriteUint32(w.out, voxelio.LittleEndian, 2) // dict size
	writeVoxString(w.out, "_r")
	writeVoxString(w.out, identityRotation)
	writeVoxString(w.out, "_t")
	writeVoxString(w.out, t)
}

func (w *Writer) writeNodeGroup(id, startIndex, count, step uint32) {
	writeChunkHeader(w.out, chunkNGRP, (3+count)*4, 0)
	stream.WriteUint32(w.out, voxelio.LittleEndian, id)
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // empty node attribute dict
	stream.WriteUint32(w.out, voxelio.LittleEndian, count)
	for i := uint32(0); i < count; i++ {
		stream.WriteUint32(w.out, voxelio.LittleEndian, startIndex+i*step)
	}
}

func (w *Writer) writeNodeShape(id, modelID uint32) {
	writeChunkHeader(w.out, chunkNSHP, 5*4, 0)
	stream.WriteUint32(w.out, voxelio.LittleEndian, id)
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // empty node attribute dict
	stream.WriteUint32(w.out, voxelio.LittleEndian, 1) // numOfModels
	stream.WriteUint32(w.out, voxelio.LittleEndian, modelID)
	stream.WriteUint32(w.out, voxelio.LittleEndian, 0) // empty model attribute dict
}

// writeRGBA emits the reduced palette directly at its own indices
// (entry i holds reducedPalette's color i). The reader's i-1 shift
// then lands it at voxel palette index i+1, which is exactly the
// index8 = reducedIndex+1 that Write32 stamped into each voxel.
func (w *Writer) writeRGBA() {
	writeChunkHeader(w.out, chunkRGBA, paletteSize*4, 0)
	colors := w.reducedPalette.Build()
	for i := 0; i < paletteSize; i++ {
		var argb uint32
		if i < len(colors) {
			argb = colors[i]
		}
		c := voxelio.ColorFromARGB(argb)
		word := uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
		stream.WriteUint32(w.out, voxelio.BigEndian, word)
	}
}

func itoa32(v int32) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
