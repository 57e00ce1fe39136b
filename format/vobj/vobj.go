// Package vobj implements the VOBJ format (spec §4.9): an extensible
// container with an optional palette, an optional flat sequence of
// named, nested groups carrying a running translation offset, and
// per-group data stored as a voxel list or a positioned/tiled array of
// sub-blocks, each either dense or existence-bitmap-sparse.
package vobj

import "github.com/vxio/voxelio"

const magic = "model/x-vobj"

// ColorFormat is the wire color encoding; its low six bits give the
// encoded color's bit width (spec §4.9 "Color formats").
type ColorFormat uint8

const (
	ColorFormatRGB24  ColorFormat = 0x18
	ColorFormatARGB32 ColorFormat = 0x20
	ColorFormatV8     ColorFormat = 0x48
	ColorFormatAV16   ColorFormat = 0x50
)

func (f ColorFormat) byteCount() int { return int(uint8(f)&0x3f) / 8 }

var recognizedColorFormats = map[ColorFormat]bool{
	ColorFormatRGB24: true, ColorFormatARGB32: true, ColorFormatV8: true, ColorFormatAV16: true,
}

// decodeColor unpacks data (byteCount(format) bytes) into an ARGB
// color per spec §4.9's channel layout for each format.
func decodeColor(format ColorFormat, data []byte) voxelio.Color32 {
	switch format {
	case ColorFormatRGB24:
		return voxelio.Color32{R: data[0], G: data[1], B: data[2], A: 0xFF}
	case ColorFormatARGB32:
		return voxelio.Color32{A: data[0], R: data[1], G: data[2], B: data[3]}
	case ColorFormatV8:
		return voxelio.Color32{R: data[0], G: data[0], B: data[0], A: 0xFF}
	case ColorFormatAV16:
		return voxelio.Color32{A: data[0], R: data[1], G: data[1], B: data[1]}
	default:
		return voxelio.Color32{}
	}
}

// DataFormat names how a group's (or the file's single ungrouped)
// voxel content is laid out (spec §4.9 "Data structure").
type DataFormat uint8

const (
	DataFormatEmpty           DataFormat = 0x10
	DataFormatList            DataFormat = 0x20
	DataFormatArrayPositioned DataFormat = 0x30
	DataFormatArrayTiled      DataFormat = 0x31
)

var recognizedDataFormats = map[DataFormat]bool{
	DataFormatEmpty: true, DataFormatList: true, DataFormatArrayPositioned: true, DataFormatArrayTiled: true,
}

const (
	extDebug          = "debug"
	extGroups         = "group"
	extExistenceArray = "exArr"
	ext16BitArray     = "arr16"
	ext32BitArray     = "arr32"
)

var recognizedExtensions = map[string]bool{
	extDebug: true, extGroups: true, extExistenceArray: true, ext16BitArray: true, ext32BitArray: true,
}

// extensions is the set of recognized extension names present in the
// header (spec §4.9 "Extensions").
type extensions struct {
	debug bool
	exArr bool
	group bool
	arr16 bool
	arr32 bool
}

// palette holds the optional indirection table (spec §4.9 "Palette").
// bits == 0 means colors are stored inline in the voxel stream; a
// palette of size 1 is a degenerate case handled without an index
// read at all, matching the reference reader.
type palette struct {
	bits    uint8
	size    uint64
	content []byte
}

var recognizedPaletteBits = map[uint8]bool{0: true, 8: true, 16: true, 32: true}

// zeroToFull maps a zero-valued size/dimension field to 2^bits, the
// convention used throughout VOBJ for both palette size and array
// dimensions (spec §4.9 "Palette", "Dimensions").
func zeroToFull(v uint64, bits uint) uint64 {
	if v == 0 {
		return uint64(1) << bits
	}
	return v
}

func divCeil(numerator, denominator uint32) uint32 {
	return uint32((uint64(numerator) + uint64(denominator) - 1) / uint64(denominator))
}

