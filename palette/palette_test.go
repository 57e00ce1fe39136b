package palette

import (
	"testing"

	"github.com/vxio/voxelio"
)

func TestPaletteInsertIsIdempotent(t *testing.T) {
	p := New()
	red := voxelio.Color32{A: 255, R: 255, G: 0, B: 0}
	i1 := p.Insert(red)
	i2 := p.Insert(red)
	if i1 != i2 {
		t.Fatalf("re-inserting the same color changed index: %d != %d", i1, i2)
	}
	if p.Size() != 1 {
		t.Fatalf("size = %d, want 1", p.Size())
	}
}

func TestPaletteIndexOfAndColorOfRoundTrip(t *testing.T) {
	p := New()
	colors := []voxelio.Color32{
		{A: 255, R: 1, G: 2, B: 3},
		{A: 255, R: 4, G: 5, B: 6},
		{A: 255, R: 7, G: 8, B: 9},
	}
	for _, c := range colors {
		p.Insert(c)
	}
	for _, c := range colors {
		idx, ok := p.IndexOf(c)
		if !ok {
			t.Fatalf("IndexOf(%v) not found", c)
		}
		if p.ColorOf(idx) != c {
			t.Fatalf("ColorOf(IndexOf(%v)) = %v", c, p.ColorOf(idx))
		}
	}
}

// TestReduceIdentity covers spec §8's "reduce identity" testable
// property: reducing to a target size >= the palette's size changes
// nothing.
func TestReduceIdentity(t *testing.T) {
	p := New()
	for i := 0; i < 10; i++ {
		p.Insert(voxelio.Color32{A: 255, R: uint8(i * 20), G: 0, B: 0})
	}
	mapping, actual := p.Reduce(10)
	if actual != 10 {
		t.Fatalf("actualSize = %d, want 10", actual)
	}
	for i, origin := range mapping {
		if origin != uint32(i) {
			t.Fatalf("mapping[%d] = %d, want %d (identity)", i, origin, i)
		}
	}
}

// TestReduceIsSurjectiveOntoFewerRepresentatives covers spec §8's
// "reduce surjective" property: reducing to a smaller target size
// produces a mapping whose image has exactly targetSize distinct
// representatives, and every original index maps to some
// representative index that is itself a fixed point of the mapping.
func TestReduceIsSurjectiveOntoFewerRepresentatives(t *testing.T) {
	p := New()
	for i := 0; i < 40; i++ {
		p.Insert(voxelio.Color32{A: 255, R: uint8(i * 6), G: uint8(255 - i*6), B: uint8(i * 3)})
	}
	const target = 8
	mapping, actual := p.Reduce(target)
	if actual != target {
		t.Fatalf("actualSize = %d, want %d", actual, target)
	}

	representatives := make(map[uint32]bool)
	for _, origin := range mapping {
		representatives[origin] = true
	}
	if len(representatives) != target {
		t.Fatalf("got %d distinct representatives, want %d", len(representatives), target)
	}
	for rep := range representatives {
		if mapping[rep] != rep {
			t.Fatalf("representative %d is not a fixed point: mapping[%d] = %d", rep, rep, mapping[rep])
		}
	}

	reduced := p.CreateReducedPaletteAndStoreMapping(mapping)
	if reduced.Size() != target {
		t.Fatalf("reduced palette size = %d, want %d", reduced.Size(), target)
	}
}

func TestHexTreeClosestOnTwoFarColors(t *testing.T) {
	var tree HexTree
	black := voxelio.Color32{A: 0, R: 0, G: 0, B: 0}
	white := voxelio.Color32{A: 255, R: 255, G: 255, B: 255}
	tree.Insert(black, 0)
	tree.Insert(white, 1)

	near := voxelio.Color32{A: 10, R: 10, G: 10, B: 10}
	closest, value, ok := tree.Closest(near)
	if !ok || closest != black || value != 0 {
		t.Fatalf("Closest(%v) = %v, %d, %v; want black, 0, true", near, closest, value, ok)
	}

	far := voxelio.Color32{A: 200, R: 200, G: 200, B: 200}
	closest, value, ok = tree.Closest(far)
	if !ok || closest != white || value != 1 {
		t.Fatalf("Closest(%v) = %v, %d, %v; want white, 1, true", far, closest, value, ok)
	}
}

func TestHexTreeForEachVisitsEveryInsertedColor(t *testing.T) {
	var tree HexTree
	want := map[uint32]uint32{}
	for i := uint32(0); i < 50; i++ {
		c := voxelio.Color32{A: 255, R: uint8(i), G: uint8(i * 2), B: uint8(i * 3)}
		tree.Insert(c, i)
		want[c.ARGB()] = i
	}
	got := map[uint32]uint32{}
	tree.ForEach(func(c voxelio.Color32, v uint32) {
		got[c.ARGB()] = v
	})
	if len(got) != len(want) {
		t.Fatalf("ForEach visited %d entries, want %d", len(got), len(want))
	}
	for argb, v := range want {
		if got[argb] != v {
			t.Fatalf("ForEach value for %x = %d, want %d", argb, got[argb], v)
		}
	}
}
