// Package voxelio is a polymorphic, streaming library for reading and
// writing voxel scenes across multiple on-disk formats (MagicaVoxel VOX,
// Qubicle Binary, VOBJ, Binvox). The root package holds the primitives
// every format codec and support subsystem shares: endianness, bit
// utilities, the result/error model and ARGB32 color.
//
// Format codecs live in the format/ subpackages; the streaming and
// compression backends live in stream/ and deflate/; the palette and
// spatial-index machinery used by color-reducing encoders lives in
// palette/.
package voxelio

import "encoding/binary"

// Endian selects a byte order for primitive encode/decode.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
	// NativeEndian resolves to LittleEndian; voxelio only ever targets
	// little-endian host platforms.
	NativeEndian = LittleEndian
)

// ByteOrder returns the encoding/binary.ByteOrder matching e.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endian) String() string {
	switch e {
	case BigEndian:
		return "big"
	default:
		return "little"
	}
}

// PutUint16 encodes v into buf[0:2] using e's byte order.
func (e Endian) PutUint16(buf []byte, v uint16) { e.ByteOrder().PutUint16(buf, v) }

// PutUint32 encodes v into buf[0:4] using e's byte order.
func (e Endian) PutUint32(buf []byte, v uint32) { e.ByteOrder().PutUint32(buf, v) }

// PutUint64 encodes v into buf[0:8] using e's byte order.
func (e Endian) PutUint64(buf []byte, v uint64) { e.ByteOrder().PutUint64(buf, v) }

// Uint16 decodes a uint16 from buf[0:2] using e's byte order.
func (e Endian) Uint16(buf []byte) uint16 { return e.ByteOrder().Uint16(buf) }

// Uint32 decodes a uint32 from buf[0:4] using e's byte order.
func (e Endian) Uint32(buf []byte) uint32 { return e.ByteOrder().Uint32(buf) }

// Uint64 decodes a uint64 from buf[0:8] using e's byte order.
func (e Endian) Uint64(buf []byte) uint64 { return e.ByteOrder().Uint64(buf) }
