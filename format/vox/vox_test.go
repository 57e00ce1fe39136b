package vox

import (
	"testing"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

func TestDecodeRotationIdentity(t *testing.T) {
	// bits=0b0000100: row0 nonzero col 0, row1 nonzero col 1 (row2
	// resolves to col 2), all signs positive.
	tr, ok := decodeRotation(0b0000100)
	if !ok {
		t.Fatalf("decodeRotation rejected a valid descriptor")
	}
	want := identityTransformation()
	if tr.Matrix != want.Matrix {
		t.Fatalf("matrix = %v, want identity %v", tr.Matrix, want.Matrix)
	}
}

func TestDecodeRotationInvalidDuplicateRow(t *testing.T) {
	// Both row0 and row1 claim column 0: invalid.
	if _, ok := decodeRotation(0b0000000); ok {
		t.Fatalf("expected invalid rotation to be rejected")
	}
}

func TestConcatLeftIdentityIsNeutral(t *testing.T) {
	id := identityTransformation()
	other := Transformation{Matrix: [3][3]int8{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}, Translation: [3]int32{1, 2, 3}}
	if got := concat(id, other); got != other {
		t.Fatalf("concat(identity, t) = %v, want %v", got, other)
	}
}

func TestTransformationApplyIdentityIsTranslation(t *testing.T) {
	tr := Transformation{Matrix: identityTransformation().Matrix, Translation: [3]int32{5, -5, 0}}
	pivot := [3]uint32{0, 0, 0}
	got := tr.apply([3]uint32{2, 3, 4}, pivot)
	want := [3]int32{2 + 5, 3 - 5, 4 + 0}
	if got != want {
		t.Fatalf("apply = %v, want %v", got, want)
	}
}

// writeMinimalModel constructs, by hand, a single-model VOX stream: one
// SIZE/XYZI pair with an identity-rooted nTRN/nSHP scene graph and an
// RGBA palette, mirroring the byte layout of spec §4.8.
func writeMinimalModel(t *testing.T, voxels [][4]byte, colors [256]uint32) []byte {
	t.Helper()
	out := stream.NewByteArrayOutputStream()
	out.Write([]byte(magic))
	stream.WriteUint32(out, voxelio.LittleEndian, currentVersion)

	mainHeaderPos := out.Position()
	writeChunkHeader(out, chunkMAIN, 0, 0)
	bodyStart := out.Position()

	// SIZE
	writeChunkHeader(out, chunkSIZE, 12, 0)
	stream.WriteUint32(out, voxelio.LittleEndian, 4)
	stream.WriteUint32(out, voxelio.LittleEndian, 4)
	stream.WriteUint32(out, voxelio.LittleEndian, 4)

	// XYZI
	writeChunkHeader(out, chunkXYZI, uint32(4+4*len(voxels)), 0)
	stream.WriteUint32(out, voxelio.LittleEndian, uint32(len(voxels)))
	for _, v := range voxels {
		out.Write(v[:])
	}

	// nTRN(root id=0, child=nSHP id=1) with identity rotation
	writeChunkHeader(out, chunkNTRN, 11*4+2+1+2+5, 0)
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // id
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // empty attrs dict
	stream.WriteUint32(out, voxelio.LittleEndian, 1) // childId -> nSHP id 1
	stream.WriteInt32(out, voxelio.LittleEndian, -1)
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // layerId
	stream.WriteUint32(out, voxelio.LittleEndian, 1) // numFrames
	stream.WriteUint32(out, voxelio.LittleEndian, 2) // dict: _r, _t
	writeVoxString(out, "_r")
	writeVoxString(out, "4")
	writeVoxString(out, "_t")
	// SIZE is 4 on every axis; the pivot-offset formula needs a
	// translation of size/2 to make an identity rotation reproduce the
	// exact local (x,y,z) from the file (mirrors how Writer places
	// toCenterTranslation on every tile's nTRN).
	writeVoxString(out, "2 2 2")

	// nSHP(id=1, model=0)
	writeChunkHeader(out, chunkNSHP, 5*4, 0)
	stream.WriteUint32(out, voxelio.LittleEndian, 1)
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // empty attrs dict
	stream.WriteUint32(out, voxelio.LittleEndian, 1) // numModels
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // modelId
	stream.WriteUint32(out, voxelio.LittleEndian, 0) // empty reserved dict

	// RGBA
	writeChunkHeader(out, chunkRGBA, paletteSize*4, 0)
	for i := 0; i < paletteSize; i++ {
		c := voxelio.ColorFromARGB(colors[i])
		word := uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
		stream.WriteUint32(out, voxelio.BigEndian, word)
	}

	bodyEnd := out.Position()
	out.SeekAbsolute(mainHeaderPos + 8)
	stream.WriteUint32(out, voxelio.LittleEndian, uint32(bodyEnd-bodyStart))
	out.SeekAbsolute(bodyEnd)

	return out.Bytes()
}

// TestReadIdentityScene covers spec §8's "VOX debug-cube" case with
// fixGravity=false: reading must reproduce exactly the voxels in the
// file.
func TestReadIdentityScene(t *testing.T) {
	var colors [256]uint32
	colors[0] = voxelio.Color32{A: 255, R: 11, G: 22, B: 33}.ARGB() // RGBA entry 0 -> palette index 1

	voxels := [][4]byte{{1, 2, 3, 1}}
	data := writeMinimalModel(t, voxels, colors)

	r := NewReader(stream.NewByteArrayInputStream(data), false)
	buf := make([]voxel.Voxel32, 8)
	var got []voxel.Voxel32
	for {
		result := r.Read32(buf)
		got = append(got, buf[:result.VoxelsRead]...)
		if result.Code == voxelio.ResultReadEnd {
			break
		}
		if result.Code.IsError() {
			t.Fatalf("Read32: %v", result)
		}
	}

	if len(got) != 1 {
		t.Fatalf("got %d voxels, want 1: %+v", len(got), got)
	}
	v := got[0]
	if v.X != 1 || v.Y != 2 || v.Z != 3 {
		t.Fatalf("voxel pos = (%d,%d,%d), want (1,2,3)", v.X, v.Y, v.Z)
	}
	want := voxelio.Color32{A: 255, R: 11, G: 22, B: 33}.ARGB()
	if v.ARGB != want {
		t.Fatalf("voxel color = %#x, want %#x", v.ARGB, want)
	}
}

// TestFixGravitySwapsYZ covers spec §8's fixGravity=true case.
func TestFixGravitySwapsYZ(t *testing.T) {
	var colors [256]uint32
	colors[0] = voxelio.Color32{A: 255, R: 1, G: 2, B: 3}.ARGB()
	data := writeMinimalModel(t, [][4]byte{{1, 2, 3, 1}}, colors)

	r := NewReader(stream.NewByteArrayInputStream(data), true)
	buf := make([]voxel.Voxel32, 8)
	result := r.Read32(buf)
	if result.Code.IsError() {
		t.Fatalf("Read32: %v", result)
	}
	if result.VoxelsRead != 1 {
		t.Fatalf("got %d voxels, want 1", result.VoxelsRead)
	}
	v := buf[0]
	if v.X != 1 || v.Y != 3 || v.Z != -2 {
		t.Fatalf("fixGravity voxel pos = (%d,%d,%d), want (1,3,-2)", v.X, v.Y, v.Z)
	}
}

func TestZeroModelsReturnsReadEnd(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	out.Write([]byte(magic))
	stream.WriteUint32(out, voxelio.LittleEndian, currentVersion)
	writeChunkHeader(out, chunkMAIN, 0, 0)

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()), false)
	result := r.Read32(make([]voxel.Voxel32, 4))
	if result.Code != voxelio.ResultReadEnd || result.VoxelsRead != 0 {
		t.Fatalf("got %v, want READ_END with 0 voxels", result)
	}
}

// TestWriterReaderRoundTrip covers spec §8: "Round-trip through the
// writer followed by the reader yields the same set of (pos, color)
// pairs."
func TestWriterReaderRoundTrip(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	w := NewWriter(out, 4, false)

	colorA := voxelio.Color32{A: 255, R: 10, G: 20, B: 30}
	colorB := voxelio.Color32{A: 255, R: 200, G: 100, B: 50}
	w.Palette().Insert(colorA)
	w.Palette().Insert(colorB)

	voxels := []voxel.Voxel32{
		{X: 0, Y: 0, Z: 0, ARGB: colorA.ARGB()},
		{X: 1, Y: 1, Z: 1, ARGB: colorB.ARGB()},
		{X: 5, Y: 0, Z: 0, ARGB: colorA.ARGB()}, // lands in the adjacent tile
	}
	if code := w.Write32(voxels); code.IsError() {
		t.Fatalf("Write32: %v", code)
	}
	if code := w.Finalize(); code.IsError() {
		t.Fatalf("Finalize: %v", code)
	}

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()), false)
	var got []voxel.Voxel32
	buf := make([]voxel.Voxel32, 8)
	for {
		result := r.Read32(buf)
		got = append(got, buf[:result.VoxelsRead]...)
		if result.Code == voxelio.ResultReadEnd {
			break
		}
		if result.Code.IsError() {
			t.Fatalf("Read32: %v", result)
		}
	}

	want := map[[3]int32]uint32{}
	for _, v := range voxels {
		want[[3]int32{v.X, v.Y, v.Z}] = v.ARGB
	}
	if len(got) != len(want) {
		t.Fatalf("got %d voxels, want %d: %+v", len(got), len(want), got)
	}
	for _, v := range got {
		argb, ok := want[[3]int32{v.X, v.Y, v.Z}]
		if !ok || argb != v.ARGB {
			t.Fatalf("voxel at (%d,%d,%d) = %#x, want %#x (ok=%v)", v.X, v.Y, v.Z, v.ARGB, argb, ok)
		}
	}
}
