package palette

import (
	"bytes"
	"testing"

	"github.com/vxio/voxelio"
)

func TestCacheExportImportRoundTrip(t *testing.T) {
	p := New()
	p.Insert(voxelio.Color32{A: 255, R: 10, G: 20, B: 30})
	p.Insert(voxelio.Color32{A: 255, R: 40, G: 50, B: 60})
	p.Insert(voxelio.Color32{A: 128, R: 1, G: 2, B: 3})

	var buf bytes.Buffer
	if err := p.ExportCache(&buf); err != nil {
		t.Fatalf("ExportCache: %v", err)
	}

	got, err := ImportCache(&buf)
	if err != nil {
		t.Fatalf("ImportCache: %v", err)
	}
	if got.Size() != p.Size() {
		t.Fatalf("size = %d, want %d", got.Size(), p.Size())
	}
	for i := 0; i < p.Size(); i++ {
		if got.ColorOf(uint32(i)) != p.ColorOf(uint32(i)) {
			t.Fatalf("color %d mismatch: %v != %v", i, got.ColorOf(uint32(i)), p.ColorOf(uint32(i)))
		}
	}
}
