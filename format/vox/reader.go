package vox

import (
	"strconv"
	"strings"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

// readerState is the resumable cursor into the second pass: which
// model, which parent shape within that model's parent chain, which
// voxel within the current XYZI body, and the transform in effect for
// the current shape (spec §4.8 "Resumability").
type readerState struct {
	modelIndex  int
	parentIndex int
	voxelIndex  uint32
	transform   Transformation
}

// Reader decodes a VOX stream into a flat voxel list, applying each
// model's scene-graph transform during the second pass (spec §4.8).
type Reader struct {
	in          stream.InputStream
	fixGravity  bool
	initialized bool

	palette [paletteSize]uint32

	nodeParentMap map[uint32][]uint32
	nodeMap       map[uint32]sceneNode
	chunks        []voxelChunkInfo
	transforms    []Transformation
	shapeNodeIDs  []uint32
	rootNodeID    uint32
	rootFound     bool

	state   readerState
	helper  voxel.WriteHelper
	dataLen uint64
}

// NewReader creates a VOX reader over in. fixGravity swaps the Y/Z axes
// and negates Z on every emitted voxel, converting MagicaVoxel's Z-up
// convention to this library's Y-up convention (spec §4.8 "Second
// pass").
func NewReader(in stream.InputStream, fixGravity bool) *Reader {
	return &Reader{
		in:            in,
		fixGravity:    fixGravity,
		nodeParentMap: make(map[uint32][]uint32),
		nodeMap:       make(map[uint32]sceneNode),
	}
}

// Init performs the full first pass: reads every chunk, memoizing
// SIZE/XYZI pairs, the palette, and the scene graph, then assembles
// per-model parent chains and seeks back to the first model's body.
func (r *Reader) Init() voxelio.ResultCode {
	if r.initialized {
		return voxelio.ResultWarningDoubleInit
	}

	if code := r.readMagicAndVersion(); code.IsError() {
		return code
	}
	if result := r.readChunk(false); result.Code.IsError() {
		return result.Code
	}
	for !r.in.EOF() {
		result := r.readChunk(true)
		if result.Code == voxelio.ResultReadObjectEnd {
			break
		}
		if result.Code.IsError() {
			return result.Code
		}
	}
	r.in.ClearErrors()

	if len(r.chunks) == 0 {
		r.initialized = true
		return voxelio.ResultReadEnd
	}

	if code := r.processSceneGraph(); code.IsError() {
		return code
	}

	r.in.SeekAbsolute(r.chunks[0].pos)
	r.updateTransformForCurrentShape()

	r.initialized = true
	return voxelio.ResultOK
}

func (r *Reader) processSceneGraph() voxelio.ResultCode {
	for _, shapeID := range r.shapeNodeIDs {
		modelID := r.nodeMap[shapeID].contentID
		for _, parentID := range r.nodeParentMap[shapeID] {
			parent, ok := r.nodeMap[parentID]
			if !ok || parent.kind != NodeTransform {
				return voxelio.ResultReadErrorUnexpectedSymbol
			}
			r.chunks[modelID].parentIDs = append(r.chunks[modelID].parentIDs, parentID)
		}
	}
	return voxelio.ResultOK
}

func (r *Reader) emplaceSceneNode(id uint32, kind NodeType, contentID uint32) voxelio.ResultCode {
	if _, exists := r.nodeMap[id]; exists {
		return voxelio.ResultReadErrorDuplicateData
	}
	r.nodeMap[id] = sceneNode{kind: kind, contentID: contentID}
	return voxelio.ResultOK
}

// updateTransformForCurrentShape walks the parent chain of the shape
// currently selected by state.{modelIndex,parentIndex}, concatenating
// every nTRN transform found on the way to the scene root (spec §4.8
// "Scene graph assembly" step 4).
func (r *Reader) updateTransformForCurrentShape() {
	chunk := r.chunks[r.state.modelIndex]
	baseParentID := chunk.parentIDs[r.state.parentIndex]
	baseParent := r.nodeMap[baseParentID]

	transform := r.transforms[baseParent.contentID]

	parentID := baseParentID
	for {
		grandparents, ok := r.nodeParentMap[parentID]
		if !ok || len(grandparents) == 0 {
			break
		}
		parentID = grandparents[0]
		parent := r.nodeMap[parentID]
		if parent.kind == NodeTransform {
			transform = concat(r.transforms[parent.contentID], transform)
		}
	}
	r.state.transform = transform
}

func (r *Reader) readMagicAndVersion() voxelio.ResultCode {
	buf := make([]byte, chunkNameLength)
	n := r.in.Read(buf)
	if n != chunkNameLength || string(buf) != magic {
		return voxelio.ResultReadErrorUnexpectedMagic
	}
	version := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ResultReadErrorUnexpectedEOF
	}
	if version != currentVersion {
		return voxelio.ResultReadErrorUnknownVersion
	}
	return voxelio.ResultOK
}

func (r *Reader) readChunkType() (ChunkType, voxelio.ReadResult) {
	var buf [chunkNameLength]byte
	n := r.in.Read(buf[:])
	if n != chunkNameLength || r.in.EOF() {
		return 0, voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated chunk id")
	}
	id := ChunkType(voxelio.BigEndian.Uint32(buf[:]))
	if _, ok := validChunkTypes[id]; !ok {
		return 0, parseErr(r.in.Position(), "invalid chunk id")
	}
	return id, voxelio.ReadResult{Code: voxelio.ResultOK}
}

type chunkHeader struct {
	kind         ChunkType
	selfSize     uint32
	childrenSize uint32
}

func (h chunkHeader) totalSize() int64 { return int64(h.selfSize) + int64(h.childrenSize) }

// readChunkHeader reads one chunk's id/selfSize/childrenSize. When
// eofAllowed is true, EOF at the very first byte is reported as
// ResultReadObjectEnd (the well-formed "ran out of sibling chunks"
// case) rather than an error.
func (r *Reader) readChunkHeader(eofAllowed bool) (chunkHeader, voxelio.ReadResult) {
	kind, result := r.readChunkType()
	if result.Code.IsError() {
		if eofAllowed && r.in.EOF() {
			return chunkHeader{}, voxelio.ReadResult{Code: voxelio.ResultReadObjectEnd}
		}
		return chunkHeader{}, result
	}
	selfSize := stream.ReadUint32(r.in, voxelio.LittleEndian)
	childrenSize := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return chunkHeader{}, voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated chunk header")
	}
	return chunkHeader{kind: kind, selfSize: selfSize, childrenSize: childrenSize}, voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readChunk(eofAllowed bool) voxelio.ReadResult {
	header, result := r.readChunkHeader(eofAllowed)
	if result.Code.IsError() || result.Code == voxelio.ResultReadObjectEnd {
		return result
	}
	return r.readChunkContent(header)
}

func (r *Reader) readChunkContent(header chunkHeader) voxelio.ReadResult {
	switch header.kind {
	case chunkPACK:
		return voxelio.ReadResult{Code: voxelio.ResultReadErrorUnsupportedFeature,
			Err: &voxelio.Error{Location: r.in.Position(), Message: "PACK chunks are not supported"}}
	case chunkMATL, chunkMATT, chunkIMAP, chunkROBJ:
		r.in.SeekRelative(header.totalSize())
		return voxelio.ReadResult{Code: voxelio.ResultOK}
	case chunkMAIN:
		return r.readChunkContentMain()
	case chunkSIZE:
		return r.readChunkContentSize()
	case chunkXYZI:
		return voxelio.ReadResult{Code: voxelio.ResultOK}
	case chunkRGBA:
		return r.readChunkContentRGBA()
	case chunkNTRN:
		return r.readChunkContentNodeTransform()
	case chunkNGRP:
		return r.readChunkContentNodeGroup()
	case chunkNSHP:
		return r.readChunkContentNodeShape()
	case chunkLAYR:
		return r.readChunkContentLayer()
	default:
		return parseErr(r.in.Position(), "unhandled chunk type "+nameOf(header.kind))
	}
}

// readChunkContentMain reads SIZE/XYZI pairs until it finds the first
// non-SIZE chunk, which starts the scene graph proper (spec §4.8
// "SIZE declares the bounding dimensions of the next XYZI").
func (r *Reader) readChunkContentMain() voxelio.ReadResult {
	if len(r.chunks) != 0 || len(r.nodeMap) != 0 {
		return voxelio.ReadResult{Code: voxelio.ResultReadErrorMultipleRoots}
	}
	for {
		header, result := r.readChunkHeader(true)
		if result.Code.IsError() {
			return result
		}
		if result.Code == voxelio.ResultReadObjectEnd {
			return voxelio.ReadResult{Code: voxelio.ResultOK}
		}
		if header.kind != chunkSIZE {
			return r.readChunkContent(header)
		}
		if result := r.readChunkContentSize(); result.Code.IsError() {
			return result
		}

		header, result = r.readChunkHeader(false)
		if result.Code.IsError() {
			return result
		}
		if header.kind != chunkXYZI {
			return parseErr(r.in.Position(), "expected SIZE to be followed by XYZI, got "+nameOf(header.kind))
		}
		voxelCount := stream.ReadUint32(r.in, voxelio.LittleEndian)
		pos := r.in.Position()
		if r.in.EOF() {
			return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, pos, "truncated XYZI voxel count")
		}
		chunk := &r.chunks[len(r.chunks)-1]
		chunk.voxelCount = voxelCount
		chunk.pos = pos

		r.in.SeekRelative(header.totalSize() - 4)
	}
}

func (r *Reader) readChunkContentSize() voxelio.ReadResult {
	var size [3]uint32
	for i := range size {
		size[i] = stream.ReadUint32(r.in, voxelio.LittleEndian)
	}
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated SIZE chunk")
	}
	r.chunks = append(r.chunks, voxelChunkInfo{size: size})
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

// readChunkContentRGBA loads the 256-entry palette. Palette index i in
// XYZI maps to RGBA entry i-1 mod 256 (spec §4.8: "the last entry of
// the file maps to index 0, which must never be used").
func (r *Reader) readChunkContentRGBA() voxelio.ReadResult {
	for i := 0; i < paletteSize; i++ {
		var buf [4]byte
		n := r.in.Read(buf[:])
		if n != 4 || r.in.EOF() {
			return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated RGBA chunk")
		}
		rgba := voxelio.BigEndian.Uint32(buf[:])
		c := voxelio.Color32{R: byte(rgba >> 24), G: byte(rgba >> 16), B: byte(rgba >> 8), A: byte(rgba)}
		r.palette[(i+1)%paletteSize] = c.ARGB()
	}
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readString() (string, voxelio.ReadResult) {
	size := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return "", voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated string length")
	}
	s := stream.ReadString(r.in, int(size))
	if r.in.EOF() {
		return "", voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated string body")
	}
	return s, voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readDict() (map[string]string, voxelio.ReadResult) {
	dict := make(map[string]string)
	size := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return nil, voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated dict length")
	}
	for i := uint32(0); i < size; i++ {
		key, result := r.readString()
		if result.Code.IsError() {
			return nil, result
		}
		value, result := r.readString()
		if result.Code.IsError() {
			return nil, result
		}
		dict[key] = value
	}
	return dict, voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) skipDict() voxelio.ReadResult {
	size := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated dict length")
	}
	for i := uint32(0); i < size*2; i++ {
		strLen := stream.ReadUint32(r.in, voxelio.LittleEndian)
		if r.in.EOF() {
			return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated dict string")
		}
		r.in.SeekRelative(int64(strLen))
	}
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func expectField(name string, wantI64, got int64, pos uint64) voxelio.ReadResult {
	return parseErr(pos, "expected "+name+" to be "+strconv.FormatInt(wantI64, 10)+" but got "+strconv.FormatInt(got, 10))
}

func (r *Reader) readChunkContentNodeTransform() voxelio.ReadResult {
	nodeID := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nTRN id")
	}
	if result := r.skipDict(); result.Code.IsError() {
		return result
	}
	childNodeID := stream.ReadUint32(r.in, voxelio.LittleEndian)
	reservedID := stream.ReadInt32(r.in, voxelio.LittleEndian)
	r.in.SeekRelative(4) // layerId, unused
	numFrames := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nTRN fields")
	}
	if reservedID != -1 {
		return expectField("reservedId", -1, int64(reservedID), r.in.Position())
	}
	if numFrames != 1 {
		return expectField("numOfFrames", 1, int64(numFrames), r.in.Position())
	}

	transform, result := r.readTransformationDict()
	if result.Code.IsError() {
		return result
	}
	transformID := uint32(len(r.transforms))
	r.transforms = append(r.transforms, transform)

	if parents := r.nodeParentMap[nodeID]; len(parents) == 0 {
		if r.rootFound {
			return parseErr(r.in.Position(), "duplicate root nTRN")
		}
		r.rootNodeID = nodeID
		r.rootFound = true
	}
	if code := r.emplaceSceneNode(nodeID, NodeTransform, transformID); code.IsError() {
		return voxelio.ReadResult{Code: code}
	}
	r.nodeParentMap[childNodeID] = append(r.nodeParentMap[childNodeID], nodeID)
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readChunkContentNodeGroup() voxelio.ReadResult {
	nodeID := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nGRP id")
	}
	if result := r.skipDict(); result.Code.IsError() {
		return result
	}
	numChildren := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nGRP child count")
	}
	children := make([]uint32, numChildren)
	for i := range children {
		children[i] = stream.ReadUint32(r.in, voxelio.LittleEndian)
	}
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nGRP children")
	}

	if len(r.nodeParentMap[nodeID]) == 0 {
		return parseErr(r.in.Position(), "nGRP without parent found")
	}
	if code := r.emplaceSceneNode(nodeID, NodeGroup, 0); code.IsError() {
		return voxelio.ReadResult{Code: code}
	}
	for _, childID := range children {
		r.nodeParentMap[childID] = append(r.nodeParentMap[childID], nodeID)
	}
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readChunkContentNodeShape() voxelio.ReadResult {
	nodeID := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nSHP id")
	}
	if result := r.skipDict(); result.Code.IsError() {
		return result
	}
	numModels := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nSHP model count")
	}
	if numModels != 1 {
		return expectField("numOfModels", 1, int64(numModels), r.in.Position())
	}
	modelID := stream.ReadUint32(r.in, voxelio.LittleEndian)
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated nSHP model id")
	}
	if int(modelID) >= len(r.chunks) {
		return parseErr(r.in.Position(), "modelId out of range")
	}
	if result := r.skipDict(); result.Code.IsError() { // reserved
		return result
	}

	if len(r.nodeParentMap[nodeID]) == 0 {
		return parseErr(r.in.Position(), "nSHP without parents found")
	}
	if code := r.emplaceSceneNode(nodeID, NodeShape, modelID); code.IsError() {
		return voxelio.ReadResult{Code: code}
	}
	r.shapeNodeIDs = append(r.shapeNodeIDs, nodeID)
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readChunkContentLayer() voxelio.ReadResult {
	r.in.SeekRelative(4) // layerId, unused
	if r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated LAYR")
	}
	if result := r.skipDict(); result.Code.IsError() {
		return result
	}
	reservedID := stream.ReadInt32(r.in, voxelio.LittleEndian)
	if reservedID != -1 {
		return expectField("reservedId", -1, int64(reservedID), r.in.Position())
	}
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

func (r *Reader) readTransformationDict() (Transformation, voxelio.ReadResult) {
	dict, result := r.readDict()
	if result.Code.IsError() {
		return Transformation{}, result
	}

	out := identityTransformation()
	if str, ok := dict["_r"]; ok {
		bits, err := strconv.ParseUint(str, 10, 8)
		if err != nil {
			return out, voxelio.ReadResultError(0, voxelio.ResultReadErrorTextParseFail, r.in.Position(), "failed to parse rotation integer")
		}
		rotation, ok := decodeRotation(uint8(bits))
		if !ok {
			return out, parseErr(r.in.Position(), "invalid rotation descriptor")
		}
		out.Matrix = rotation.Matrix
	}

	if str, ok := dict["_t"]; ok {
		parts := strings.Fields(str)
		if len(parts) != 3 {
			return out, voxelio.ReadResultError(0, voxelio.ResultReadErrorIllegalDataLength, r.in.Position(), "expected _t to be 3 space-separated integers")
		}
		for i, p := range parts {
			v, err := strconv.ParseInt(p, 10, 32)
			if err != nil {
				return out, voxelio.ReadResultError(0, voxelio.ResultReadErrorTextParseFail, r.in.Position(), "failed to parse translation integer")
			}
			out.Translation[i] = int32(v)
		}
	}

	return out, voxelio.ReadResult{Code: voxelio.ResultOK}
}

// readOneVoxel reads the next (x,y,z,paletteIndex) quadruplet, applies
// the current shape's transform, and writes the result into the
// destination buffer.
func (r *Reader) readOneVoxel(doublePivot [3]uint32) voxelio.ReadResult {
	var xyzi [4]byte
	n := r.in.Read(xyzi[:])
	if n != 4 || r.in.EOF() {
		return voxelio.ReadResultError(0, voxelio.ResultReadErrorUnexpectedEOF, r.in.Position(), "truncated XYZI voxel")
	}

	pos := r.state.transform.apply([3]uint32{uint32(xyzi[0]), uint32(xyzi[1]), uint32(xyzi[2])}, doublePivot)
	if r.fixGravity {
		pos[1], pos[2] = pos[2], pos[1]
		pos[2] = -pos[2]
	}

	argb := r.palette[xyzi[3]]
	r.helper.Write32(voxel.Voxel32{X: pos[0], Y: pos[1], Z: pos[2], ARGB: argb})
	return voxelio.ReadResult{Code: voxelio.ResultOK}
}

// Read32 fills buf via the second pass, resuming across calls at
// state's granularity: model, parent shape, then voxel.
func (r *Reader) Read32(buf []voxel.Voxel32) voxelio.ReadResult {
	if !r.initialized {
		code := r.Init()
		if code.IsError() {
			return voxelio.ReadResultError(0, code, r.in.Position(), "vox init failed")
		}
		if code == voxelio.ResultReadEnd {
			return voxelio.ReadResultOK(0, voxelio.ResultReadEnd)
		}
	}

	r.helper.Reset32(buf)

	for r.state.modelIndex < len(r.chunks) {
		chunk := r.chunks[r.state.modelIndex]
		doublePivot := [3]uint32{
			(chunk.size[0] &^ 1) - 1,
			(chunk.size[1] &^ 1) - 1,
			(chunk.size[2] &^ 1) - 1,
		}

		for r.state.parentIndex < len(chunk.parentIDs) {
			for ; r.state.voxelIndex < chunk.voxelCount; r.state.voxelIndex++ {
				if r.helper.IsFull() {
					return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultOK)
				}
				if result := r.readOneVoxel(doublePivot); result.Code.IsError() {
					return result
				}
			}
			r.state.voxelIndex = 0
			r.state.parentIndex++
			if r.state.parentIndex < len(chunk.parentIDs) {
				r.updateTransformForCurrentShape()
				r.in.SeekAbsolute(chunk.pos)
			}
		}
		r.state.parentIndex = 0
		r.state.modelIndex++
		if r.state.modelIndex < len(r.chunks) {
			r.updateTransformForCurrentShape()
			r.in.SeekAbsolute(r.chunks[r.state.modelIndex].pos)
		}
	}

	return voxelio.ReadResultOK(uint64(r.helper.VoxelsWritten()), voxelio.ResultReadEnd)
}

// Progress reports fractional completion across all models combined.
func (r *Reader) Progress() float32 {
	if !r.initialized || len(r.chunks) == 0 {
		return 0
	}
	total := len(r.chunks)
	return (float32(r.state.modelIndex) + float32(r.state.parentIndex)/float32(max1(len(r.chunks[minInt(r.state.modelIndex, total-1)].parentIDs)))) / float32(total)
}

func max1(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
