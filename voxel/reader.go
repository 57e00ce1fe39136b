package voxel

import "github.com/vxio/voxelio"

// AbstractReader is the streaming voxel source every format reader
// implements (spec §4.5). Init is idempotent: a second call returns
// ResultWarningDoubleInit rather than re-parsing the header.
type AbstractReader interface {
	// Init parses any header/metadata needed before the first Read.
	// Implicitly invoked by the first Read call if not already called.
	Init() voxelio.ResultCode

	// Read32 fills buf with up to len(buf) voxels and reports how many
	// were written. Code is one of ResultOK, ResultReadBufferFull,
	// ResultReadObjectEnd, ResultReadEnd, or a read-error code.
	Read32(buf []Voxel32) voxelio.ReadResult

	// Progress reports completion in [0,1], or NaN if unknown (formats
	// without a declared voxel count or total size up front).
	Progress() float32
}

// AbstractReader64 is the 64-bit-position counterpart of AbstractReader,
// used by formats whose canvases can exceed int32 range (VOBJ).
type AbstractReader64 interface {
	Init() voxelio.ResultCode
	Read64(buf []Voxel64) voxelio.ReadResult
	Progress() float32
}
