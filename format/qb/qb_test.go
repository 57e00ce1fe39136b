package qb

import (
	"testing"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	w := NewWriter(out, "test")
	w.SetDimensions(Dims{X: 2, Y: 2, Z: 2})

	voxels := []voxel.Voxel32{
		{X: 0, Y: 0, Z: 0, ARGB: voxelio.Color32{A: 255, R: 10, G: 20, B: 30}.ARGB()},
		{X: 1, Y: 1, Z: 1, ARGB: voxelio.Color32{A: 255, R: 40, G: 50, B: 60}.ARGB()},
	}
	w.Write32(voxels)
	if code := w.Finalize(); code.IsError() {
		t.Fatalf("Finalize: %v", code)
	}

	in := stream.NewByteArrayInputStream(out.Bytes())
	r := NewReader(in)

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
	if r.CurrentMatrix().Name != "test" {
		t.Fatalf("matrix name = %q, want %q", r.CurrentMatrix().Name, "test")
	}
}

func TestDecodeColorBGRAAndVisibilityMask(t *testing.T) {
	// BGRA word, high to low: B=0x11, G=0x22, R=0x33, A=0x02 (one face
	// visibility bit set, which visMaskEncoded turns into opaque 0xFF).
	word := uint32(0x11223302)
	c := decodeColor(word, ColorFormatBGRA, true)
	if c.R != 0x33 || c.G != 0x22 || c.B != 0x11 {
		t.Fatalf("decodeColor = %+v, want R=33 G=22 B=11", c)
	}
	if c.A != 0xFF {
		t.Fatalf("visibilityMaskEncoded should force alpha to 0xFF, got %#x", c.A)
	}
}

func TestDecodeColorRGBA(t *testing.T) {
	// RGBA word, high to low: R=0xAA, G=0xBB, B=0xCC, A=0xDD.
	word := uint32(0xAABBCCDD)
	c := decodeColor(word, ColorFormatRGBA, false)
	if c.R != 0xAA || c.G != 0xBB || c.B != 0xCC || c.A != 0xDD {
		t.Fatalf("decodeColor = %+v", c)
	}
}

// TestInvisibleVoxelsAreSkipped covers spec §4.7: "Invisible voxels are
// skipped, not emitted."
func TestInvisibleVoxelsAreSkipped(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	stream.WriteUint32(out, voxelio.BigEndian, currentVersion)
	stream.WriteUint32(out, voxelio.BigEndian, uint32(ColorFormatRGBA))
	stream.WriteUint32(out, voxelio.BigEndian, uint32(ZOrientLeft))
	stream.WriteUint32(out, voxelio.LittleEndian, 0)
	stream.WriteUint32(out, voxelio.LittleEndian, 0)
	stream.WriteUint32(out, voxelio.LittleEndian, 1)

	out.WriteByte(0) // empty matrix name
	stream.WriteUint32(out, voxelio.LittleEndian, 1)
	stream.WriteUint32(out, voxelio.LittleEndian, 1)
	stream.WriteUint32(out, voxelio.LittleEndian, 1)
	stream.WriteInt32(out, voxelio.LittleEndian, 0)
	stream.WriteInt32(out, voxelio.LittleEndian, 0)
	stream.WriteInt32(out, voxelio.LittleEndian, 0)
	// single voxel, alpha = 0 => invisible.
	stream.WriteUint32(out, voxelio.BigEndian, 0x00000000)

	in := stream.NewByteArrayInputStream(out.Bytes())
	r := NewReader(in)
	result := r.Read32(make([]voxel.Voxel32, 4))
	for result.Code != voxelio.ResultReadEnd && !result.Code.IsError() {
		if result.VoxelsRead != 0 {
			t.Fatalf("invisible voxel was emitted: %+v", result)
		}
		result = r.Read32(make([]voxel.Voxel32, 4))
	}
	if result.Code.IsError() {
		t.Fatalf("unexpected error: %v", result)
	}
}
