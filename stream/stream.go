// Package stream provides the byte-oriented stream abstraction every
// voxelio format codec reads from and writes through (spec §4.1). Streams
// carry sticky {eof, err} flags instead of using Go's usual single-error
// return, because codecs need to distinguish "ran out of input" from
// "the underlying medium faulted" at arbitrary points inside a decode
// loop without unwinding the call stack on every short read.
package stream

import (
	"github.com/vxio/voxelio"
)

// InputStream is a byte source with Java-style sticky error flags
// (spec §4.1). Every voxelio format reader is built on top of one.
type InputStream interface {
	// ReadByte reads a single byte. On EOF it sets the eof flag and
	// returns an indeterminate byte.
	ReadByte() byte
	// Read reads up to len(buf) bytes, returning the count actually
	// read. A short read sets eof; an I/O fault sets err and returns 0.
	Read(buf []byte) int
	// ReadUntil reads bytes up to but not including delimiter, which is
	// consumed. Returns the bytes read (excluding the delimiter).
	ReadUntil(maxSize int, delimiter byte) []byte
	// SeekAbsolute moves the read head to an absolute byte offset.
	SeekAbsolute(pos uint64)
	// SeekRelative moves the read head by a relative byte offset.
	SeekRelative(off int64)
	// Position returns the current byte offset.
	Position() uint64
	// EOF reports whether the end-of-stream flag is set.
	EOF() bool
	// Err reports whether the error flag is set.
	Err() bool
	// ClearErrors resets both the eof and err flags.
	ClearErrors()
	// Close releases any resources held by the stream.
	Close() error
}

// OutputStream is the write-side counterpart of InputStream.
type OutputStream interface {
	// WriteByte writes a single byte.
	WriteByte(b byte)
	// Write writes buf in full, returning the count actually written.
	Write(buf []byte) int
	// Flush flushes any buffered data to the underlying medium.
	Flush()
	// SeekAbsolute moves the write head to an absolute byte offset.
	SeekAbsolute(pos uint64)
	// SeekRelative moves the write head by a relative byte offset.
	SeekRelative(off int64)
	// Position returns the current byte offset.
	Position() uint64
	// Err reports whether the error flag is set.
	Err() bool
	// ClearErrors resets the error flag.
	ClearErrors()
	// Close flushes and releases any resources held by the stream.
	Close() error
}

// flags holds the sticky {eof, err} bits shared by every stream
// implementation in this package.
type flags struct {
	eof bool
	err bool
}

func (f *flags) EOF() bool    { return f.eof }
func (f *flags) Err() bool    { return f.err }
func (f *flags) ClearErrors() { f.eof, f.err = false, false }

// ReadLine appends everything up to (and consuming) the next '\n' to out,
// dropping a trailing '\r' if present. Reaching EOF mid-line is not an
// error; the caller inspects in.EOF() afterwards (spec §4.1).
func ReadLine(in InputStream, out []byte) []byte {
	for {
		b := in.ReadByte()
		if in.EOF() {
			return out
		}
		if b == '\n' {
			if n := len(out); n > 0 && out[n-1] == '\r' {
				out = out[:n-1]
			}
			return out
		}
		out = append(out, b)
	}
}

// ReadString reads exactly n bytes as a string. If fewer than n bytes are
// available, EOF is set and the short result is returned.
func ReadString(in InputStream, n int) string {
	buf := make([]byte, n)
	got := in.Read(buf)
	return string(buf[:got])
}

// ReadStringUntil reads bytes up to delimiter (which is consumed) as a
// string.
func ReadStringUntil(in InputStream, maxSize int, delimiter byte) string {
	return string(in.ReadUntil(maxSize, delimiter))
}

// ReadUint16/32/64 decode a 2-, 4- or 8-byte unsigned integer using the
// given byte order.
func ReadUint16(in InputStream, order voxelio.Endian) uint16 {
	var buf [2]byte
	in.Read(buf[:])
	return order.Uint16(buf[:])
}

func ReadUint32(in InputStream, order voxelio.Endian) uint32 {
	var buf [4]byte
	in.Read(buf[:])
	return order.Uint32(buf[:])
}

func ReadUint64(in InputStream, order voxelio.Endian) uint64 {
	var buf [8]byte
	in.Read(buf[:])
	return order.Uint64(buf[:])
}

func ReadInt32(in InputStream, order voxelio.Endian) int32 {
	return int32(ReadUint32(in, order))
}

// WriteUint16/32/64 write an integer in the given byte order.
func WriteUint16(out OutputStream, order voxelio.Endian, v uint16) {
	var buf [2]byte
	order.PutUint16(buf[:], v)
	out.Write(buf[:])
}

func WriteUint32(out OutputStream, order voxelio.Endian, v uint32) {
	var buf [4]byte
	order.PutUint32(buf[:], v)
	out.Write(buf[:])
}

func WriteUint64(out OutputStream, order voxelio.Endian, v uint64) {
	var buf [8]byte
	order.PutUint64(buf[:], v)
	out.Write(buf[:])
}

func WriteInt32(out OutputStream, order voxelio.Endian, v int32) {
	WriteUint32(out, order, uint32(v))
}

// WriteString writes s followed by a NUL terminator.
func WriteString(out OutputStream, s string) {
	out.Write([]byte(s))
	out.WriteByte(0)
}
