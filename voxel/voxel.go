// Package voxel defines the generic voxel value types and the
// streaming reader/writer abstractions every format codec in this
// module builds on (spec §4.5).
package voxel

// Voxel32 is a generic voxel with a 32-bit position, used by formats
// whose coordinate range fits comfortably in an int32 (VOX, QB,
// Binvox).
type Voxel32 struct {
	X, Y, Z int32
	// ARGB holds either a packed color or a palette index, depending on
	// which the producing format uses; callers that care which it is
	// track that out of band (the zero value is ambiguous by design,
	// mirroring the original's tagged union of argb/index).
	ARGB uint32
}

// Voxel64 is a generic voxel with a 64-bit position, used by formats
// whose models can exceed int32 coordinate range (VOBJ's sparse/dense
// arrays over large canvases).
type Voxel64 struct {
	X, Y, Z int64
	ARGB    uint32
}

// Widen converts a Voxel32 to a Voxel64, sign-extending the position.
func Widen(v Voxel32) Voxel64 {
	return Voxel64{X: int64(v.X), Y: int64(v.Y), Z: int64(v.Z), ARGB: v.ARGB}
}

// Narrow converts a Voxel64 to a Voxel32, truncating the position.
// Saturation is deliberately not performed: out-of-range coordinates
// are a caller error, not a recoverable condition (spec §4.5:
// "saturation-free narrow/widen semantics").
func Narrow(v Voxel64) Voxel32 {
	return Voxel32{X: int32(v.X), Y: int32(v.Y), Z: int32(v.Z), ARGB: v.ARGB}
}
