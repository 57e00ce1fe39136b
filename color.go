package voxelio

import "github.com/lucasb-eyer/go-colorful"

// Color32 is a 32-bit color with channels A, R, G, B, each one byte wide.
type Color32 struct {
	A, R, G, B uint8
}

// ARGB packs the color into a single word: A<<24 | R<<16 | G<<8 | B.
func (c Color32) ARGB() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ColorFromARGB unpacks a 32-bit ARGB word into a Color32.
func ColorFromARGB(argb uint32) Color32 {
	return Color32{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}
}

// Permutation reorders the four channels of an ARGB32 word. Each entry is
// the source channel (0=A, 1=R, 2=G, 3=B) contributing to the destination
// slot at that index, high byte first, e.g. RGBAPermutation places R in
// the byte that ARGBPermutation would place A in.
type Permutation [4]int

var (
	// ARGBPermutation is the identity permutation.
	ARGBPermutation = Permutation{0, 1, 2, 3}
	// RGBAPermutation rotates A to the low byte: R,G,B,A.
	RGBAPermutation = Permutation{1, 2, 3, 0}
	// BGRAPermutation swaps R and B relative to RGBA: B,G,R,A.
	BGRAPermutation = Permutation{3, 2, 1, 0}
	// ABGRPermutation reverses channel order relative to ARGB: A,B,G,R.
	ABGRPermutation = Permutation{0, 3, 2, 1}
)

// Apply reorders word (packed high-byte-first in ARGB order) according to
// the permutation and returns the repacked word, again high-byte-first.
func (p Permutation) Apply(word uint32) uint32 {
	channels := [4]uint8{uint8(word >> 24), uint8(word >> 16), uint8(word >> 8), uint8(word)}
	return uint32(channels[p[0]])<<24 | uint32(channels[p[1]])<<16 | uint32(channels[p[2]])<<8 | uint32(channels[p[3]])
}

// DistanceSqr returns the squared Euclidean distance between two colors
// in (A,R,G,B) channel space, used by the HexTree nearest-neighbor search
// and by k-means palette reduction (spec: 4-D hex-tree, §4.3).
func (c Color32) DistanceSqr(o Color32) uint32 {
	da := int32(c.A) - int32(o.A)
	dr := int32(c.R) - int32(o.R)
	dg := int32(c.G) - int32(o.G)
	db := int32(c.B) - int32(o.B)
	return uint32(da*da + dr*dr + dg*dg + db*db)
}

// Lab converts the RGB channels (alpha is ignored) to CIELAB, for callers
// that want a perceptual distance metric instead of the spec's Euclidean
// ARGB metric (see palette.NewPerceptualMatcher).
func (c Color32) Lab() (l, a, b float64) {
	cc := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	return cc.Lab()
}

// DeltaE2000 returns the CIEDE2000 perceptual color difference between
// the RGB channels of c and o.
func DeltaE2000(c, o Color32) float64 {
	cl, ca, cb := c.Lab()
	ol, oa, ob := o.Lab()
	c1 := colorful.Lab(cl, ca, cb)
	c2 := colorful.Lab(ol, oa, ob)
	return c1.DistanceCIEDE2000(c2)
}
