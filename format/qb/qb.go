// Package qb implements the Qubicle Binary (.qb) voxel format (spec
// §4.7): a big-endian-framed header followed by one or more named,
// positioned matrices, each either a flat array of big-endian color
// words or a per-slice run-length token stream.
package qb

import "github.com/vxio/voxelio"

const currentVersion uint32 = 0x01010000

// ColorFormat names the channel order of each 32-bit color word on the
// wire.
type ColorFormat uint32

const (
	ColorFormatRGBA ColorFormat = 0
	ColorFormatBGRA ColorFormat = 1
)

// ZOrient controls the Z-slice traversal direction.
type ZOrient uint32

const (
	ZOrientLeft  ZOrient = 0
	ZOrientRight ZOrient = 1
)

const (
	tokenCodeFlag      uint32 = 2
	tokenNextSliceFlag uint32 = 6
)

// decodeColor reorders word's bytes per format into an ARGB Color32,
// deriving a forced-opaque alpha from visMaskEncoded per spec §4.7
// ("if any face is visible, set alpha to 0xFF").
func decodeColor(word uint32, format ColorFormat, visMaskEncoded bool) voxelio.Color32 {
	var c voxelio.Color32
	switch format {
	case ColorFormatRGBA:
		c = voxelio.Color32{R: byte(word >> 24), G: byte(word >> 16), B: byte(word >> 8), A: byte(word)}
	case ColorFormatBGRA:
		c = voxelio.Color32{B: byte(word >> 24), G: byte(word >> 16), R: byte(word >> 8), A: byte(word)}
	}
	if visMaskEncoded && c.A != 0 {
		c.A = 0xFF
	}
	return c
}

// encodeColorRGBA packs c into a big-endian RGBA-ordered word, the
// format Writer always emits.
func encodeColorRGBA(c voxelio.Color32) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func reverseBytes32(w uint32) uint32 {
	return (w>>24)&0xff | (w>>8)&0xff00 | (w<<8)&0xff0000 | (w << 24)
}

// MatrixHeader is a matrix's name, position, and size.
type MatrixHeader struct {
	Name string
	Pos  [3]int32
	Size [3]uint32
}
