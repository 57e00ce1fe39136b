// Package deflate provides the Deflator/Inflator wrappers spec §4.2
// calls for: object-oriented, resumable drivers around a streaming
// compression backend, pinned to a voxelio stream, with a fixed-size
// working buffer and explicit ResultCode returns instead of panics.
//
// The backend is the standard library's compress/flate, the same
// family of codec the teacher repo reaches for (compress/gzip in
// format_schematic.go). compress/flate only exposes the compression
// Level knob; Settings.WindowBits/MemLevel/Strategy are retained as
// fields for call-site fidelity with the zlib-shaped contract the
// original C++ source models (deflate.hpp's DeflateSettings) but are
// presently no-ops against this backend — see DESIGN.md.
package deflate

import (
	"bufio"
	"compress/flate"
	"io"

	"github.com/vxio/voxelio"
	vstream "github.com/vxio/voxelio/stream"
)

// BufferSize is the size of the Inflator's fixed internal read buffer
// (256 KiB). The Deflator keeps no buffer of its own.
const BufferSize = 256 * 1024

// Strategy names the compression strategy. Only Default currently
// affects compress/flate's behavior; the others are accepted for
// interface fidelity and treated as Default.
type Strategy int

const (
	StrategyDefault Strategy = iota
	StrategyFiltered
	StrategyHuffmanOnly
	StrategyRLE
	StrategyFixed
)

// Flushing is the flush mode passed to Deflator.Deflate.
type Flushing int

const (
	FlushNone Flushing = iota
	FlushPartial
	FlushSync
	FlushFull
	FlushFinish
	FlushBlock
)

// Settings configures a Deflator.
type Settings struct {
	// Level is the compression level in [0,9]; 0 = store, 9 = max
	// compression. compress/flate's DefaultCompression (-1) and
	// HuffmanOnly (-2) are accepted too; DefaultSettings uses
	// DefaultLevel (-1).
	Level int
	// WindowBits is the base-2 log of the LZ77 window size, in (8,16).
	// Not honored by compress/flate; kept for settings-struct fidelity.
	WindowBits int
	// MemLevel trades memory for speed, in [1,9]. Not honored by
	// compress/flate; kept for settings-struct fidelity.
	MemLevel int
	// Strategy biases the entropy coder. Not honored by compress/flate
	// beyond StrategyDefault; kept for settings-struct fidelity.
	Strategy Strategy
}

const (
	DefaultLevel      = flate.DefaultCompression
	DefaultWindowBits = 15
	DefaultMemLevel   = 8
)

// DefaultSettings returns the zlib-equivalent default settings.
func DefaultSettings() Settings {
	return Settings{Level: DefaultLevel, WindowBits: DefaultWindowBits, MemLevel: DefaultMemLevel}
}

// IsValid reports whether the settings are within range: Level in
// [-2,9], WindowBits in (8,16), MemLevel in [1,9].
func (s Settings) IsValid() bool {
	return s.Level >= -2 && s.Level <= 9 && s.WindowBits > 8 && s.WindowBits < 16 && s.MemLevel >= 1 && s.MemLevel <= 9
}

// countingWriter tracks bytes handed to an OutputStream so Deflator can
// report TotalWritten.
type countingWriter struct {
	out   vstream.OutputStream
	total uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n := c.out.Write(p)
	c.total += uint64(n)
	if n != len(p) || c.out.Err() {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Deflator drives compress/flate incrementally against a voxelio output
// stream, forwarding compressed output to the stream as compress/flate
// produces it rather than buffering the whole compressed output in
// memory (spec §4.2).
type Deflator struct {
	out       *countingWriter
	w         *flate.Writer
	settings  Settings
	totalRead uint64
	aborted   bool
}

// NewDeflator creates a Deflator writing compressed output to out.
func NewDeflator(out vstream.OutputStream, settings Settings) (*Deflator, error) {
	cw := &countingWriter{out: out}
	w, err := flate.NewWriter(cw, settings.Level)
	if err != nil {
		return nil, err
	}
	return &Deflator{out: cw, w: w, settings: settings}, nil
}

// TotalRead returns the total number of uncompressed bytes handed to
// Deflate so far.
func (d *Deflator) TotalRead() uint64 { return d.totalRead }

// TotalWritten returns the total number of compressed bytes forwarded to
// the output stream so far.
func (d *Deflator) TotalWritten() uint64 { return d.out.total }

// Reset prepares the deflator to encode a fresh data stream without
// releasing the underlying output stream.
func (d *Deflator) Reset() voxelio.ResultCode {
	d.w.Reset(d.out)
	d.totalRead = 0
	d.aborted = false
	return voxelio.ResultOK
}

// Deflate compresses in[:n] and forwards completed output immediately.
// Any out-stream error aborts the operation. If flush is FlushFinish,
// the compressor is finalized and no further Deflate calls are valid
// until Reset.
func (d *Deflator) Deflate(in []byte, flush Flushing) voxelio.ResultCode {
	if d.aborted {
		return voxelio.ResultWriteErrorIO
	}
	if len(in) > 0 {
		if _, err := d.w.Write(in); err != nil {
			d.aborted = true
			return voxelio.ResultWriteErrorIO
		}
		d.totalRead += uint64(len(in))
	}
	switch flush {
	case FlushFinish:
		if err := d.w.Close(); err != nil {
			d.aborted = true
			return voxelio.ResultWriteErrorIO
		}
	case FlushNone:
		// no-op: compress/flate buffers internally between writes.
	default:
		if err := d.w.Flush(); err != nil {
			d.aborted = true
			return voxelio.ResultWriteErrorIO
		}
	}
	if d.out.out.Err() {
		d.aborted = true
		return voxelio.ResultWriteErrorIO
	}
	return voxelio.ResultOK
}

// Flush flushes any buffered compressed bytes without finalizing the
// stream.
func (d *Deflator) Flush() voxelio.ResultCode {
	return d.Deflate(nil, FlushSync)
}

// Finish finalizes the compressed stream. Equivalent to
// Deflate(nil, FlushFinish).
func (d *Deflator) Finish() voxelio.ResultCode {
	return d.Deflate(nil, FlushFinish)
}

// Inflator drives compress/flate's decompressor incrementally against a
// voxelio input stream.
type Inflator struct {
	in           vstream.InputStream
	r            io.ReadCloser
	br           *bufio.Reader
	totalWritten uint64
	eof          bool
}

// NewInflator creates an Inflator reading compressed data from in.
func NewInflator(in vstream.InputStream) *Inflator {
	br := bufio.NewReaderSize(&inputStreamReader{in: in}, BufferSize)
	return &Inflator{in: in, r: flate.NewReader(br), br: br}
}

// inputStreamReader adapts a voxelio InputStream to io.Reader so
// compress/flate can consume it.
type inputStreamReader struct{ in vstream.InputStream }

func (r *inputStreamReader) Read(p []byte) (int, error) {
	n := r.in.Read(p)
	if n == 0 {
		if r.in.Err() {
			return 0, io.ErrClosedPipe
		}
		return 0, io.EOF
	}
	if n < len(p) && r.in.EOF() {
		return n, nil
	}
	return n, nil
}

// EOF reports whether the inflator has observed the end of the
// compressed stream.
func (inf *Inflator) EOF() bool { return inf.eof }

// TotalWritten returns the total number of decompressed bytes produced
// so far.
func (inf *Inflator) TotalWritten() uint64 { return inf.totalWritten }

// Inflate decompresses into out, filling as much of it as the compressed
// stream yields in one call, and reports the number of bytes written.
func (inf *Inflator) Inflate(out []byte) (written int, code voxelio.ResultCode) {
	for written < len(out) {
		n, err := inf.r.Read(out[written:])
		written += n
		if err == io.EOF {
			inf.eof = true
			break
		}
		if err != nil {
			return written, voxelio.ResultReadErrorIO
		}
		if n == 0 {
			break
		}
	}
	inf.totalWritten += uint64(written)
	return written, voxelio.ResultOK
}

// Close releases the backend decompressor's resources.
func (inf *Inflator) Close() error { return inf.r.Close() }
