// Package palette implements the insertion-ordered color palette and its
// spatial index, the 4-D hex-tree (spec §4.3), used by encoders that
// target color-indexed formats (VOX's 256-entry RGBA chunk, QB's
// optional palette-free direct color, VOBJ's indirection modes).
package palette

import (
	"container/heap"

	"github.com/vxio/voxelio"
)

// hexTreeDepth is the number of nibble-wide levels in the tree: a 32-bit
// Morton code consumes 8 nibbles.
const hexTreeDepth = 8

// hexTreeBranching is the number of children per node (one per nibble
// value).
const hexTreeBranching = 16

// hexNode is a node of the HexTree. Leaves (level 1) store values
// directly in leaves; internal nodes hold child pointers. childMask bit i
// is set iff child i exists (spec §3 HexTree invariants).
type hexNode struct {
	childMask uint16
	children  [hexTreeBranching]*hexNode // nil at leaf level
	values    [hexTreeBranching]uint32   // meaningful at leaf level only
}

func (n *hexNode) has(i uint32) bool { return n.childMask&(1<<i) != 0 }
func (n *hexNode) add(i uint32)      { n.childMask |= 1 << i }

// HexTree is a 16-ary, 8-level prefix tree keyed by the nibble-wise
// Morton interleaving of a 4-channel (A,R,G,B) color. It answers
// point/nearest-neighbor queries in roughly O(log n) instead of the
// O(n) a flat color list would require, which is what makes k-means
// palette reduction (Palette.Reduce) tractable for large palettes.
type HexTree struct {
	root hexNode
	size int
}

// Insert associates color with value, overwriting any previous value at
// that exact color.
func (t *HexTree) Insert(color voxelio.Color32, value uint32) {
	morton := voxelio.Ileave4(color.ARGB())
	node := &t.root
	for level := hexTreeDepth; level > 1; level-- {
		digit := (morton >> 28) & 0xf
		if !node.has(digit) {
			node.add(digit)
			node.children[digit] = &hexNode{}
		}
		node = node.children[digit]
		morton <<= 4
	}
	digit := (morton >> 28) & 0xf
	if !node.has(digit) {
		t.size++
	}
	node.add(digit)
	node.values[digit] = value
}

// Find returns the value stored at color and true, or (0, false) if no
// such color was inserted.
func (t *HexTree) Find(color voxelio.Color32) (uint32, bool) {
	morton := voxelio.Ileave4(color.ARGB())
	node := &t.root
	for level := hexTreeDepth; level > 1; level-- {
		digit := (morton >> 28) & 0xf
		if !node.has(digit) {
			return 0, false
		}
		node = node.children[digit]
		morton <<= 4
	}
	digit := (morton >> 28) & 0xf
	if !node.has(digit) {
		return 0, false
	}
	return node.values[digit], true
}

// Contains reports whether color has been inserted.
func (t *HexTree) Contains(color voxelio.Color32) bool {
	_, ok := t.Find(color)
	return ok
}

// Len returns the number of distinct colors in the tree.
func (t *HexTree) Len() int { return t.size }

// ForEach visits every (color, value) pair in canonical nibble order.
func (t *HexTree) ForEach(action func(color voxelio.Color32, value uint32)) {
	forEachNode(&t.root, hexTreeDepth, 0, action)
}

func forEachNode(node *hexNode, level int, morton uint32, action func(voxelio.Color32, uint32)) {
	for i := uint32(0); i < hexTreeBranching; i++ {
		if !node.has(i) {
			continue
		}
		childMorton := (morton << 4) | i
		if level > 1 {
			forEachNode(node.children[i], level-1, childMorton, action)
		} else {
			argb := voxelio.Dileave4(childMorton)
			action(voxelio.ColorFromARGB(argb), node.values[i])
		}
	}
}

// searchEntry is a priority-queue item for HexTree.Closest's best-first
// search: either an internal node with the squared distance from the
// query point to its bounding box, or a leaf with the squared distance
// to its exact point.
type searchEntry struct {
	node     *hexNode
	value    uint32
	morton   uint32
	distance uint32
	level    int // 0 at leaf
}

type searchQueue []searchEntry

func (q searchQueue) Len() int            { return len(q) }
func (q searchQueue) Less(i, j int) bool  { return q[i].distance < q[j].distance }
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x interface{}) { *q = append(*q, x.(searchEntry)) }
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// boxDistanceSqr returns the squared distance from p to the axis-aligned
// box [min,max] in each of the four channels, clamping each axis
// contribution to zero when p already lies within that axis's span.
func boxDistanceSqr(p, min, max [4]int32) uint32 {
	var total uint32
	for i := 0; i < 4; i++ {
		d := int32(0)
		if min[i]-p[i] > d {
			d = min[i] - p[i]
		}
		if p[i]-max[i] > d {
			d = p[i] - max[i]
		}
		total += uint32(d * d)
	}
	return total
}

func channels(argb uint32) [4]int32 {
	c := voxelio.ColorFromARGB(argb)
	return [4]int32{int32(c.A), int32(c.R), int32(c.G), int32(c.B)}
}

// Closest performs a best-first search (priority queue ordered by
// squared distance to each subtree's bounding box) for the color nearest
// to point, returning that color and its stored value. The search
// terminates as soon as the best candidate found is no farther than the
// next queued entry, which is what gives HexTree its O(log n) typical
// case over a linear scan (spec §4.3).
func (t *HexTree) Closest(point voxelio.Color32) (voxelio.Color32, uint32, bool) {
	if t.size == 0 {
		return voxelio.Color32{}, 0, false
	}
	p := channels(point.ARGB())

	q := &searchQueue{{node: &t.root, level: hexTreeDepth}}
	heap.Init(q)

	best := searchEntry{distance: ^uint32(0)}
	haveBest := false

	for q.Len() > 0 {
		entry := heap.Pop(q).(searchEntry)
		if haveBest && entry.distance >= best.distance {
			break
		}
		if entry.level == 0 {
			best = entry
			haveBest = true
			continue
		}
		node := entry.node
		childLevel := entry.level - 1
		for i := uint32(0); i < hexTreeBranching; i++ {
			if !node.has(i) {
				continue
			}
			childMorton := (entry.morton << 4) | i
			if childLevel > 0 {
				boxMin := channels(voxelio.Dileave4(childMorton << uint(4*childLevel)))
				span := int32(1) << uint(childLevel)
				boxMax := [4]int32{boxMin[0] + span - 1, boxMin[1] + span - 1, boxMin[2] + span - 1, boxMin[3] + span - 1}
				heap.Push(q, searchEntry{
					node:     node.children[i],
					morton:   childMorton,
					level:    childLevel,
					distance: boxDistanceSqr(p, boxMin, boxMax),
				})
			} else {
				leafArgb := voxelio.Dileave4(childMorton)
				heap.Push(q, searchEntry{
					value:    node.values[i],
					morton:   childMorton,
					level:    0,
					distance: boxDistanceSqr(p, channels(leafArgb), channels(leafArgb)),
				})
			}
		}
	}

	if !haveBest {
		return voxelio.Color32{}, 0, false
	}
	argb := voxelio.Dileave4(best.morton)
	return voxelio.ColorFromARGB(argb), best.value, true
}

// DistanceSqr returns the squared distance from point to the nearest
// color in the tree. Equivalent to distanceSqr(Closest(point), point).
func (t *HexTree) DistanceSqr(point voxelio.Color32) uint32 {
	closest, _, ok := t.Closest(point)
	if !ok {
		return ^uint32(0)
	}
	return point.DistanceSqr(closest)
}
