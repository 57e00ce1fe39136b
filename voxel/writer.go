package voxel

import (
	"github.com/vxio/voxelio"
	"github.com/vxio/voxelio/palette"
)

// Dimensions is a 3-axis extent, used by AbstractListWriter.SetCanvasDimensions.
type Dimensions struct {
	X, Y, Z uint32
}

// AbstractListWriter is the streaming voxel sink every format writer
// implements (spec §4.5). Init is implicit on first Write32.
type AbstractListWriter interface {
	// Init prepares the writer to accept voxels. Implicitly invoked by
	// the first Write32 call if not already called.
	Init() voxelio.ResultCode

	// Write32 consumes buf, one call per batch of voxels.
	Write32(buf []Voxel32) voxelio.ResultCode

	// Palette returns the writer's mutable palette handle, or nil if the
	// format doesn't use one.
	Palette() *palette.Palette

	// SetCanvasDimensions informs the writer of the model's bounding box
	// ahead of time. Returns false if the format has no use for this
	// (e.g. it streams voxels without pre-sizing a grid).
	SetCanvasDimensions(dims Dimensions) bool

	// Finalize flushes any buffered state. Required before the writer is
	// discarded for any format that performs internal buffering; a
	// writer discarded without Finalize has produced undefined output.
	Finalize() voxelio.ResultCode
}
