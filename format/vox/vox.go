// Package vox implements the MagicaVoxel (.vox) format (spec §4.8): a
// chunk tree rooted at MAIN, holding one or more SIZE/XYZI voxel
// models, an RGBA palette, and a scene graph of transform/group/shape
// nodes that places each model in world space.
package vox

import "github.com/vxio/voxelio"

const magic = "VOX "
const currentVersion uint32 = 150

const chunkNameLength = 4
const paletteSize = 256

// ChunkType is a chunk's 4-byte ASCII id, packed big-endian the way it
// appears on the wire.
type ChunkType uint32

func chunkType(name string) ChunkType {
	return ChunkType(uint32(name[0])<<24 | uint32(name[1])<<16 | uint32(name[2])<<8 | uint32(name[3]))
}

var (
	chunkMAIN = chunkType("MAIN")
	chunkSIZE = chunkType("SIZE")
	chunkXYZI = chunkType("XYZI")
	chunkRGBA = chunkType("RGBA")
	chunkMATT = chunkType("MATT")
	chunkPACK = chunkType("PACK")
	chunkNGRP = chunkType("nGRP")
	chunkNSHP = chunkType("nSHP")
	chunkNTRN = chunkType("nTRN")
	chunkLAYR = chunkType("LAYR")
	chunkMATL = chunkType("MATL")
	chunkIMAP = chunkType("IMAP")
	chunkROBJ = chunkType("rOBJ")
)

var validChunkTypes = map[ChunkType]string{
	chunkMAIN: "MAIN", chunkSIZE: "SIZE", chunkXYZI: "XYZI", chunkRGBA: "RGBA",
	chunkMATT: "MATT", chunkPACK: "PACK", chunkNGRP: "nGRP", chunkNSHP: "nSHP",
	chunkNTRN: "nTRN", chunkLAYR: "LAYR", chunkMATL: "MATL", chunkIMAP: "IMAP",
	chunkROBJ: "rOBJ",
}

func nameOf(t ChunkType) string {
	if n, ok := validChunkTypes[t]; ok {
		return n
	}
	return "?"
}

// NodeType distinguishes the three scene graph node kinds.
type NodeType int

const (
	NodeTransform NodeType = iota
	NodeGroup
	NodeShape
)

// sceneNode is one entry of the node table keyed by the file-local node
// id. contentId indexes into transformations for TRANSFORM nodes, is
// unused (0) for GROUP nodes, and is the model index for SHAPE nodes.
type sceneNode struct {
	kind      NodeType
	contentID uint32
}

// Transformation is a rotation matrix (rows of {-1,0,1} entries) plus an
// integer translation, as decoded from an nTRN node's "_r"/"_t" dict
// entries (spec §4.8 "Rotation decoding").
type Transformation struct {
	Matrix      [3][3]int8
	Translation [3]int32
}

// identityTransformation is the default when an nTRN carries no "_r".
func identityTransformation() Transformation {
	return Transformation{Matrix: [3][3]int8{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

func (t Transformation) row(i int) [3]int8 { return t.Matrix[i] }

func (t Transformation) col(i int) [3]int8 {
	return [3]int8{t.Matrix[0][i], t.Matrix[1][i], t.Matrix[2][i]}
}

func dot8(a, b [3]int8) int32 {
	return int32(a[0])*int32(b[0]) + int32(a[1])*int32(b[1]) + int32(a[2])*int32(b[2])
}

func dot8_32(a [3]int8, b [3]int32) int32 {
	return int32(a[0])*b[0] + int32(a[1])*b[1] + int32(a[2])*b[2]
}

// concat composes two transformations the way a parent (lhs) and child
// (rhs) combine while walking a scene graph parent chain (spec §4.8
// "Scene graph assembly" step 4).
func concat(lhs, rhs Transformation) Transformation {
	var out Transformation
	out.Translation = lhs.Translation
	for row := 0; row < 3; row++ {
		lhsRow := lhs.row(row)
		for col := 0; col < 3; col++ {
			out.Matrix[row][col] = int8(dot8(lhsRow, rhs.col(col)))
		}
		out.Translation[row] += dot8_32(lhsRow, rhs.Translation)
	}
	return out
}

// divFloor is integer floor division, needed because apply's halved dot
// product can be negative.
func divFloor(a int32, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// apply transforms a voxel's local position (pointInModel) into world
// space using the doubled-coordinate pivot trick (spec §4.8 "Second
// pass"): the rotation pivot sits on the half-integer grid between
// voxels, so positions are doubled before rotating and halved (with
// floor) after.
func (t Transformation) apply(pointInModel [3]uint32, doublePivot [3]uint32) [3]int32 {
	var doubleRelToCenter [3]int32
	for i := 0; i < 3; i++ {
		doubleRelToCenter[i] = int32(pointInModel[i])*2 - int32(doublePivot[i])
	}
	var rotated [3]int32
	for row := 0; row < 3; row++ {
		rotated[row] = divFloor(dot8_32(t.Matrix[row], doubleRelToCenter), 2)
	}
	return [3]int32{
		rotated[0] + t.Translation[0],
		rotated[1] + t.Translation[1],
		rotated[2] + t.Translation[2],
	}
}

// voxelChunkInfo memoizes a SIZE/XYZI pair's bounding size, voxel
// count, and stream position for the reader's second pass.
type voxelChunkInfo struct {
	size       [3]uint32
	voxelCount uint32
	pos        uint64
	parentIDs  []uint32
}

// decodeRotation unpacks the 7-bit "_r" rotation descriptor (spec §4.8
// "Rotation decoding"). row2IndexTable resolves row 2's nonzero column
// as the one not claimed by rows 0 or 1; a sentinel (value 8, out of
// range) flags an invalid bit pattern.
var row2IndexTable = [8]int{8, 8, 8, 2, 8, 1, 0, 8}

func decodeRotation(bits uint8) (Transformation, bool) {
	var out Transformation
	indices := [3]int{int((bits >> 0) & 0b11), int((bits >> 2) & 0b11), 0}
	if indices[0] > 2 || indices[1] > 2 {
		// column index 3 doesn't exist in a 3x3 matrix; this bit
		// pattern is unreachable from a well-formed file.
		return out, false
	}
	indices[2] = row2IndexTable[(1<<uint(indices[0]))|(1<<uint(indices[1]))]
	if indices[2] == 8 {
		return out, false
	}
	for i := 0; i < 3; i++ {
		sign := (bits >> uint(i+4)) & 1
		idx := indices[i]
		var v int8 = 1
		if sign == 1 {
			v = -1
		}
		out.Matrix[i][idx] = v
		out.Matrix[i][(idx+1)%3] = 0
		out.Matrix[i][(idx+2)%3] = 0
	}
	return out, true
}

func parseErr(pos uint64, msg string) voxelio.ReadResult {
	return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedSymbol, pos, msg)
}
