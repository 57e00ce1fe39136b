// Package binvox implements the text-header/RLE-body Binvox voxel
// format (spec §4.6). Binvox stores no color information; readers emit
// a single configurable uniform color, and writers accept a boolean
// occupancy source.
package binvox

import (
	"github.com/vxio/voxelio"
)

const (
	magic        = "#binvox"
	version      = 1
	defaultColor = 0xFFFFFFFF
)

// Dims is the "dim" header field's X/Y/Z extent.
type Dims struct {
	X, Y, Z uint32
}

// Translation is the optional "translate" header field.
type Translation struct {
	X, Y, Z float32
}

func indexToPos(index uint64, dim Dims) (x, y, z uint64) {
	x = index / uint64(dim.Y) / uint64(dim.Z)
	y = index % uint64(dim.Y)
	z = (index / uint64(dim.Y)) % uint64(dim.Z)
	return
}

func posToIndex(x, y, z uint64, dim Dims) uint64 {
	return x*uint64(dim.Y)*uint64(dim.Z) + z*uint64(dim.Y) + y
}

func parseErr(location uint64, msg string) voxelio.ReadResult {
	return voxelio.ReadResultError(0, voxelio.ResultReadErrorParseFail, location, msg)
}
