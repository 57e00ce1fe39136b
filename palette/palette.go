package palette

import (
	"math/rand"

	"github.com/vxio/voxelio"
)

// Palette is an insertion-ordered bijection from ARGB32 colors to small
// indices (spec §3). Indices are contiguous [0, Size()) and, once
// issued, stable for the life of the palette.
type Palette struct {
	indexOf map[uint32]uint32
	colors  []uint32 // colors[index] == color, inverse of indexOf
}

// New creates an empty palette.
func New() *Palette {
	return &Palette{indexOf: make(map[uint32]uint32)}
}

// Size returns the number of distinct colors in the palette.
func (p *Palette) Size() int { return len(p.colors) }

// Insert returns the index of color, inserting it at the next available
// index if not already present. Idempotent.
func (p *Palette) Insert(color voxelio.Color32) uint32 {
	argb := color.ARGB()
	if idx, ok := p.indexOf[argb]; ok {
		return idx
	}
	return p.InsertUnsafe(color)
}

// InsertUnsafe inserts color at the next index without checking for a
// duplicate; the caller must guarantee uniqueness.
func (p *Palette) InsertUnsafe(color voxelio.Color32) uint32 {
	idx := uint32(len(p.colors))
	argb := color.ARGB()
	p.colors = append(p.colors, argb)
	p.indexOf[argb] = idx
	return idx
}

// IndexOf returns the index of color and true, or (0, false) if absent.
func (p *Palette) IndexOf(color voxelio.Color32) (uint32, bool) {
	idx, ok := p.indexOf[color.ARGB()]
	return idx, ok
}

// ColorOf returns the color stored at index.
func (p *Palette) ColorOf(index uint32) voxelio.Color32 {
	return voxelio.ColorFromARGB(p.colors[index])
}

// Build returns the insertion-ordered color table.
func (p *Palette) Build() []uint32 {
	out := make([]uint32, len(p.colors))
	copy(out, p.colors)
	return out
}

// movingAverage is a fixed-width moving average over the last `width`
// samples, used to gate k-means++ seed acceptance (spec §4.3 step 1).
type movingAverage struct {
	window []uint32
	pos    int
	filled int
}

func newMovingAverage(width int) *movingAverage {
	return &movingAverage{window: make([]uint32, width)}
}

func (m *movingAverage) add(v uint32) {
	m.window[m.pos] = v
	m.pos = (m.pos + 1) % len(m.window)
	if m.filled < len(m.window) {
		m.filled++
	}
}

func (m *movingAverage) average() uint32 {
	if m.filled == 0 {
		return 0
	}
	var sum uint64
	for i := 0; i < m.filled; i++ {
		sum += uint64(m.window[i])
	}
	return uint32(sum / uint64(m.filled))
}

// reduceSeed is the fixed RNG seed spec §4.3 requires for reproducible
// reduction across test runs.
const reduceSeed = 12345

// seedClusterCenters picks clusterCount initial centers from colors
// using k-means++-style weighted sampling gated by a 16-wide moving
// average of observed nearest-center distances, rejecting duplicate
// centers (spec §4.3 step 1; ported from original_source's
// seedClusterCenters/MovingAverage in src/palette.cpp).
func seedClusterCenters(colors []uint32, clusterCount int) *HexTree {
	centers := &HexTree{}
	if clusterCount == 0 {
		return centers
	}
	rng := rand.New(rand.NewSource(reduceSeed))
	avg := newMovingAverage(16)

	centers.Insert(voxelio.ColorFromARGB(colors[rng.Intn(len(colors))]), 0)

	for clusterIndex := uint32(1); int(clusterIndex) < clusterCount; {
		randomColor := voxelio.ColorFromARGB(colors[rng.Intn(len(colors))])
		if centers.Contains(randomColor) {
			continue
		}
		distance := centers.DistanceSqr(randomColor)
		avg.add(distance)

		rejectBound := avg.average()*2 + 1
		if uint32(rng.Int63n(int64(rejectBound))) > distance {
			continue
		}

		centers.Insert(randomColor, clusterIndex)
		clusterIndex++
	}
	return centers
}

type clusterAccumulator struct {
	previousCenter voxelio.Color32
	sum            [4]uint64
	count          uint64
}

// Reduce computes a clustering of the palette's colors into at most
// targetSize representative colors via k-means (seeded k-means++,
// spec §4.3). It returns, for every original index i, the original
// index of the representative color for i's cluster, and the number of
// clusters actually produced (== min(p.Size(), targetSize)).
//
// If targetSize >= p.Size(), the identity mapping is returned (spec §8:
// "reduce identity" testable property).
func (p *Palette) Reduce(targetSize int) (mapping []uint32, actualSize int) {
	colorCount := p.Size()
	clusterCount := targetSize
	if clusterCount > colorCount {
		clusterCount = colorCount
	}
	mapping = make([]uint32, colorCount)

	if clusterCount == colorCount {
		for i := range mapping {
			mapping[i] = uint32(i)
		}
		return mapping, clusterCount
	}

	colors := p.Build()
	clusterCenters := seedClusterCenters(colors, clusterCount)

	accumulators := make([]clusterAccumulator, clusterCount)
	clusterCenters.ForEach(func(center voxelio.Color32, index uint32) {
		accumulators[index].previousCenter = center
	})

	for {
		anyChange := false

		for i := 0; i < colorCount; i++ {
			point := voxelio.ColorFromARGB(colors[i])
			_, clusterIdx, ok := clusterCenters.Closest(point)
			if !ok {
				continue
			}
			acc := &accumulators[clusterIdx]
			acc.sum[0] += uint64(point.A)
			acc.sum[1] += uint64(point.R)
			acc.sum[2] += uint64(point.G)
			acc.sum[3] += uint64(point.B)
			acc.count++
		}

		newCenters := &HexTree{}
		for clusterIndex := 0; clusterIndex < clusterCount; clusterIndex++ {
			acc := &accumulators[clusterIndex]
			var center voxelio.Color32
			if acc.count > 0 {
				center = voxelio.Color32{
					A: uint8(roundDiv(acc.sum[0], acc.count)),
					R: uint8(roundDiv(acc.sum[1], acc.count)),
					G: uint8(roundDiv(acc.sum[2], acc.count)),
					B: uint8(roundDiv(acc.sum[3], acc.count)),
				}
			} else {
				center = acc.previousCenter
			}
			newCenters.Insert(center, uint32(clusterIndex))
			anyChange = anyChange || center != acc.previousCenter
			accumulators[clusterIndex] = clusterAccumulator{previousCenter: center}
		}
		clusterCenters = newCenters

		if !anyChange {
			break
		}
	}

	points := &HexTree{}
	for i := 0; i < colorCount; i++ {
		points.Insert(voxelio.ColorFromARGB(colors[i]), uint32(i))
	}

	for i := 0; i < colorCount; i++ {
		point := voxelio.ColorFromARGB(colors[i])
		center, _, ok := clusterCenters.Closest(point)
		if !ok {
			mapping[i] = uint32(i)
			continue
		}
		_, representativeIndex, ok := points.Closest(center)
		if !ok {
			representativeIndex = uint32(i)
		}
		mapping[i] = representativeIndex
	}

	return mapping, clusterCount
}

func roundDiv(sum, count uint64) uint64 {
	return (sum + count/2) / count
}

// CreateReducedPaletteAndStoreMapping builds the compact palette of
// representative colors named by mapping (as produced by Reduce),
// preserving first-occurrence order among the distinct representatives.
func (p *Palette) CreateReducedPaletteAndStoreMapping(mapping []uint32) *Palette {
	reduced := New()
	seen := make(map[uint32]uint32, len(mapping))
	for _, origIndex := range mapping {
		argb := p.colors[origIndex]
		if _, ok := seen[argb]; ok {
			continue
		}
		seen[argb] = reduced.InsertUnsafe(voxelio.ColorFromARGB(argb))
	}
	return reduced
}
