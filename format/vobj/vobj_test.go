package vobj

import (
	"testing"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

func writeInt64BE(out stream.OutputStream, v int64) {
	stream.WriteUint64(out, voxelio.BigEndian, uint64(v))
}

// header writes the fixed preamble common to every test file: magic,
// an empty supportUrl, the given extension names, colorFormat, and a
// palette (bits=0 unless content is non-empty, in which case bits/size
// are derived from len(content)/colorByteCount). metaSize is always 0.
func writeHeader(out stream.OutputStream, exts []string, colorFormat ColorFormat, paletteBits uint8, paletteContent []byte) {
	out.Write([]byte(magic))
	stream.WriteUint16(out, voxelio.BigEndian, 0) // supportUrl, empty

	stream.WriteUint16(out, voxelio.BigEndian, uint16(len(exts)))
	for _, e := range exts {
		stream.WriteUint16(out, voxelio.BigEndian, uint16(len(e)))
		out.Write([]byte(e))
	}

	out.WriteByte(byte(colorFormat))

	out.WriteByte(paletteBits)
	if paletteBits != 0 {
		n := len(paletteContent) / colorFormat.byteCount()
		switch paletteBits {
		case 8:
			out.WriteByte(byte(n % 256))
		case 16:
			stream.WriteUint16(out, voxelio.BigEndian, uint16(n%65536))
		case 32:
			stream.WriteUint32(out, voxelio.BigEndian, uint32(n))
		}
		out.Write(paletteContent)
	}

	stream.WriteUint32(out, voxelio.BigEndian, 0) // metaSize
}

func readAll(t *testing.T, r *Reader) []voxel.Voxel64 {
	t.Helper()
	var got []voxel.Voxel64
	buf := make([]voxel.Voxel64, 4)
	for {
		result := r.Read64(buf)
		got = append(got, buf[:result.VoxelsRead]...)
		if result.Code == voxelio.ResultReadEnd {
			break
		}
		if result.Code.IsError() {
			t.Fatalf("Read64: %v", result)
		}
	}
	return got
}

func TestReadUngroupedListInlineColor(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	writeHeader(out, nil, ColorFormatRGB24, 0, nil)

	out.WriteByte(byte(DataFormatList))
	stream.WriteUint32(out, voxelio.BigEndian, 2) // count

	stream.WriteInt32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 2)
	stream.WriteInt32(out, voxelio.BigEndian, 3)
	out.Write([]byte{10, 20, 30})

	stream.WriteInt32(out, voxelio.BigEndian, -4)
	stream.WriteInt32(out, voxelio.BigEndian, 5)
	stream.WriteInt32(out, voxelio.BigEndian, 6)
	out.Write([]byte{40, 50, 60})

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()))
	got := readAll(t, r)
	if len(got) != 2 {
		t.Fatalf("got %d voxels, want 2: %+v", len(got), got)
	}
	if got[0].X != 1 || got[0].Y != 2 || got[0].Z != 3 {
		t.Fatalf("voxel 0 pos = %+v", got[0])
	}
	want0 := voxelio.Color32{R: 10, G: 20, B: 30, A: 0xFF}.ARGB()
	if got[0].ARGB != want0 {
		t.Fatalf("voxel 0 color = %#x, want %#x", got[0].ARGB, want0)
	}
	if got[1].X != -4 || got[1].Y != 5 || got[1].Z != 6 {
		t.Fatalf("voxel 1 pos = %+v", got[1])
	}
}

func TestReadUsesPaletteIndex(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	colorA := []byte{1, 2, 3}
	colorB := []byte{9, 8, 7}
	writeHeader(out, nil, ColorFormatRGB24, 8, append(append([]byte{}, colorA...), colorB...))

	out.WriteByte(byte(DataFormatList))
	stream.WriteUint32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	out.WriteByte(1) // index into palette -> colorB

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()))
	got := readAll(t, r)
	if len(got) != 1 {
		t.Fatalf("got %d voxels, want 1", len(got))
	}
	want := voxelio.Color32{R: 9, G: 8, B: 7, A: 0xFF}.ARGB()
	if got[0].ARGB != want {
		t.Fatalf("color = %#x, want %#x", got[0].ARGB, want)
	}
}

// TestGroupsApplyOffset covers spec §4.9 "Groups apply a running
// translation offset to every voxel emitted inside them."
func TestGroupsApplyOffset(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	writeHeader(out, []string{extGroups}, ColorFormatRGB24, 0, nil)

	stream.WriteUint32(out, voxelio.BigEndian, 2) // group count

	// group "a" at (100,0,0), popCount=0 (root is the only ancestor)
	stream.WriteUint16(out, voxelio.BigEndian, 0)
	stream.WriteUint16(out, voxelio.BigEndian, uint16(len("a")))
	out.Write([]byte("a"))
	stream.WriteInt32(out, voxelio.BigEndian, 100)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	out.WriteByte(byte(DataFormatList))
	stream.WriteUint32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 1)
	out.Write([]byte{1, 1, 1})

	// group "b" at (0,200,0), popping "a" first (popCount=1)
	stream.WriteUint16(out, voxelio.BigEndian, 1)
	stream.WriteUint16(out, voxelio.BigEndian, uint16(len("b")))
	out.Write([]byte("b"))
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 200)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	out.WriteByte(byte(DataFormatList))
	stream.WriteUint32(out, voxelio.BigEndian, 1)
	stream.WriteInt32(out, voxelio.BigEndian, 2)
	stream.WriteInt32(out, voxelio.BigEndian, 2)
	stream.WriteInt32(out, voxelio.BigEndian, 2)
	out.Write([]byte{2, 2, 2})

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()))
	got := readAll(t, r)
	if len(got) != 2 {
		t.Fatalf("got %d voxels, want 2: %+v", len(got), got)
	}
	if got[0].X != 101 || got[0].Y != 1 || got[0].Z != 1 {
		t.Fatalf("group a voxel = %+v, want (101,1,1)", got[0])
	}
	if got[1].X != 2 || got[1].Y != 202 || got[1].Z != 2 {
		t.Fatalf("group b voxel = %+v, want (2,202,2)", got[1])
	}
}

func TestPopCountTooLargeIsParseError(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	writeHeader(out, []string{extGroups}, ColorFormatRGB24, 0, nil)
	stream.WriteUint32(out, voxelio.BigEndian, 1)
	stream.WriteUint16(out, voxelio.BigEndian, 5) // pops more ancestors than exist
	stream.WriteUint16(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	stream.WriteInt32(out, voxelio.BigEndian, 0)
	out.WriteByte(byte(DataFormatEmpty))

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()))
	code := r.Init()
	if !code.IsError() {
		t.Fatalf("expected parse error, got %v", code)
	}
}

// TestArrayTiledWithExistence covers spec §4.9's exArr bitmap-presence
// encoding for a tiled array.
func TestArrayTiledWithExistence(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	writeHeader(out, []string{extExistenceArray}, ColorFormatRGB24, 0, nil)

	out.WriteByte(byte(DataFormatArrayTiled))
	// shared tile dims: 2x2x1 = 4 cells
	out.WriteByte(2)
	out.WriteByte(2)
	out.WriteByte(1)
	stream.WriteUint32(out, voxelio.BigEndian, 1) // one tile entry

	// tile index (0,0,0) * dims = (0,0,0)
	writeInt64BE(out, 0)
	writeInt64BE(out, 0)
	writeInt64BE(out, 0)

	// presence bitmap: cells in z-major (z,y,x) order are (0,0,0),(1,0,0),(0,1,0),(1,1,0);
	// only the 4th (index 3, mask bit 0b00010000) is present.
	out.WriteByte(0b00010000)
	stream.WriteUint32(out, voxelio.BigEndian, 1) // present-voxel count

	out.Write([]byte{7, 8, 9})

	r := NewReader(stream.NewByteArrayInputStream(out.Bytes()))
	got := readAll(t, r)
	if len(got) != 1 {
		t.Fatalf("got %d voxels, want 1: %+v", len(got), got)
	}
	if got[0].X != 1 || got[0].Y != 1 || got[0].Z != 0 {
		t.Fatalf("voxel pos = %+v, want (1,1,0)", got[0])
	}
	want := voxelio.Color32{R: 7, G: 8, B: 9, A: 0xFF}.ARGB()
	if got[0].ARGB != want {
		t.Fatalf("color = %#x, want %#x", got[0].ARGB, want)
	}
}

func TestReadHonorsBufferSizeInvariance(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	writeHeader(out, nil, ColorFormatRGB24, 0, nil)
	out.WriteByte(byte(DataFormatList))
	const n = 5
	stream.WriteUint32(out, voxelio.BigEndian, n)
	for i := 0; i < n; i++ {
		stream.WriteInt32(out, voxelio.BigEndian, int32(i))
		stream.WriteInt32(out, voxelio.BigEndian, 0)
		stream.WriteInt32(out, voxelio.BigEndian, 0)
		out.Write([]byte{byte(i), byte(i), byte(i)})
	}
	data := out.Bytes()

	r1 := NewReader(stream.NewByteArrayInputStream(data))
	big := make([]voxel.Voxel64, 64)
	var batched []voxel.Voxel64
	for {
		result := r1.Read64(big)
		batched = append(batched, big[:result.VoxelsRead]...)
		if result.Code == voxelio.ResultReadEnd {
			break
		}
	}

	r2 := NewReader(stream.NewByteArrayInputStream(data))
	small := make([]voxel.Voxel64, 1)
	var streamed []voxel.Voxel64
	for {
		result := r2.Read64(small)
		streamed = append(streamed, small[:result.VoxelsRead]...)
		if result.Code == voxelio.ResultReadEnd {
			break
		}
		if result.Code.IsError() {
			t.Fatalf("Read64: %v", result)
		}
	}

	if len(batched) != len(streamed) {
		t.Fatalf("batched %d voxels, streamed %d", len(batched), len(streamed))
	}
	for i := range batched {
		if batched[i] != streamed[i] {
			t.Fatalf("voxel %d differs: batched=%+v streamed=%+v", i, batched[i], streamed[i])
		}
	}
}
