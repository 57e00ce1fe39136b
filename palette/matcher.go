package palette

import "github.com/vxio/voxelio"

// ColorMatcher finds the palette entry closest to a query color under
// some distance metric. HexTree itself satisfies this using the spec's
// squared-Euclidean ARGB metric; PerceptualMatcher offers the
// alternative CIEDE2000 metric for callers that want closeness to mean
// "looks alike" rather than "is numerically near" (spec §4.3 notes this
// as a deliberate extension point).
type ColorMatcher interface {
	Closest(query voxelio.Color32) (color voxelio.Color32, value uint32, ok bool)
}

// PerceptualMatcher is a ColorMatcher that scans a flat color list and
// picks the minimum CIEDE2000 distance, via go-colorful's Lab
// conversion and DistanceCIEDE2000. It trades HexTree's O(log n) typical
// case for an O(n) scan, which is acceptable for the palette sizes (<=
// 256 entries) these formats actually use.
type PerceptualMatcher struct {
	colors []uint32
}

// NewPerceptualMatcher builds a matcher over the palette's current
// color table. The matcher is a snapshot; it does not observe later
// inserts into p.
func NewPerceptualMatcher(p *Palette) *PerceptualMatcher {
	return &PerceptualMatcher{colors: p.Build()}
}

// Closest returns the palette entry whose RGB channels are perceptually
// nearest to query under CIEDE2000, and its index.
func (m *PerceptualMatcher) Closest(query voxelio.Color32) (voxelio.Color32, uint32, bool) {
	if len(m.colors) == 0 {
		return voxelio.Color32{}, 0, false
	}
	bestIdx := 0
	bestDist := voxelio.DeltaE2000(query, voxelio.ColorFromARGB(m.colors[0]))
	for i := 1; i < len(m.colors); i++ {
		d := voxelio.DeltaE2000(query, voxelio.ColorFromARGB(m.colors[i]))
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return voxelio.ColorFromARGB(m.colors[bestIdx]), uint32(bestIdx), true
}
