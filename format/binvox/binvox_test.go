package binvox

import (
	"testing"

	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/stream"
	"github.com/vxio/voxelio/voxel"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	w := NewWriter(out)
	w.SetDimensions(Dims{X: 2, Y: 2, Z: 2})

	filled := []voxel.Voxel32{
		{X: 0, Y: 0, Z: 0, ARGB: 1},
		{X: 1, Y: 1, Z: 1, ARGB: 1},
	}
	if code := w.Write32(filled); code.IsError() {
		t.Fatalf("Write32: %v", code)
	}
	if code := w.Finalize(); code.IsError() {
		t.Fatalf("Finalize: %v", code)
	}

	in := stream.NewByteArrayInputStream(out.Bytes())
	r := NewReader(in)
	r.SetColor(0xFF112233)

	var got []voxel.Voxel32
	buf := make([]voxel.Voxel32, 4)
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

	if len(got) != 2 {
		t.Fatalf("got %d voxels, want 2: %+v", len(got), got)
	}
	for _, v := range got {
		if v.ARGB != 0xFF112233 {
			t.Fatalf("voxel color = %#x, want 0xFF112233", v.ARGB)
		}
	}
	if r.Dims() != (Dims{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("Dims() = %+v", r.Dims())
	}
}

// TestReadBufferFullResumes covers spec §4.6's resumability contract:
// a run too large for one buffer must resume correctly on the next
// Read32 call rather than dropping voxels.
func TestReadBufferFullResumes(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	w := NewWriter(out)
	w.SetDimensions(Dims{X: 10, Y: 1, Z: 1})
	all := make([]voxel.Voxel32, 10)
	for i := range all {
		all[i] = voxel.Voxel32{X: int32(i), Y: 0, Z: 0, ARGB: 1}
	}
	w.Write32(all)
	w.Finalize()

	in := stream.NewByteArrayInputStream(out.Bytes())
	r := NewReader(in)

	buf := make([]voxel.Voxel32, 3)
	var total uint64
	for {
		result := r.Read32(buf)
		total += result.VoxelsRead
		if result.Code == voxelio.ResultReadEnd {
			break
		}
		if result.Code != voxelio.ResultReadBufferFull {
			t.Fatalf("unexpected code: %v", result.Code)
		}
	}
	if total != 10 {
		t.Fatalf("total voxels = %d, want 10", total)
	}
}

func TestZeroVolumeReturnsReadEnd(t *testing.T) {
	out := stream.NewByteArrayOutputStream()
	out.Write([]byte(magic + " 1\ndim 0 0 0\ndata\n"))

	in := stream.NewByteArrayInputStream(out.Bytes())
	r := NewReader(in)
	result := r.Read32(make([]voxel.Voxel32, 4))
	if result.Code != voxelio.ResultReadEnd || result.VoxelsRead != 0 {
		t.Fatalf("got %v, want READ_END with 0 voxels", result)
	}
}

func TestIndexToPosRoundTrip(t *testing.T) {
	dim := Dims{X: 3, Y: 4, Z: 5}
	volume := uint64(dim.X) * uint64(dim.Y) * uint64(dim.Z)
	for i := uint64(0); i < volume; i++ {
		x, y, z := indexToPos(i, dim)
		if back := posToIndex(x, y, z, dim); back != i {
			t.Fatalf("index %d -> (%d,%d,%d) -> %d, not a round trip", i, x, y, z, back)
		}
	}
}
