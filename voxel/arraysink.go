package voxel

// ArraySink is a minimal interface over a dense 3D
// voxel grid. The concrete dense-array container itself is out of
// scope for this module (spec §1 Non-goals: "the in-memory VoxelArray
// dense grid container, treated as an opaque value sink"); callers
// supply their own implementation. No codec in this module calls it.
type ArraySink interface {
	Set(x, y, z int64, argb uint32)
	Get(x, y, z int64) uint32
	Dimensions() Dimensions
}
