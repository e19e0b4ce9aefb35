// Package binary provides low-level binary I/O for the HDF5 container
// layer: position-tracked readers and writers with variable-width offset
// and length fields, and the metadata checksums HDF5 uses.
package binary

import (
	"encoding/binary"
	"io"
)

// Config holds the field widths used when encoding file offsets and
// lengths. HDF5 is little-endian throughout.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // bytes per file offset: 2, 4, or 8
	LengthSize int // bytes per length: 2, 4, or 8
}

// DefaultConfig returns the configuration used for newly created files:
// little-endian with 8-byte offsets and lengths.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Writer writes binary data at a tracked position within an io.WriterAt.
type Writer struct {
	w   io.WriterAt
	cfg Config
	pos int64
}

// NewWriter creates a writer positioned at offset 0.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{w: w, cfg: cfg}
}

// At returns a writer over the same destination with an independent
// position starting at offset.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, cfg: w.cfg, pos: offset}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 { return w.pos }

// OffsetSize returns the configured offset width in bytes.
func (w *Writer) OffsetSize() int { return w.cfg.OffsetSize }

// LengthSize returns the configured length width in bytes.
func (w *Writer) LengthSize() int { return w.cfg.LengthSize }

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.cfg.ByteOrder }

// WriteBytes writes data at the current position and advances it.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	buf := make([]byte, 2)
	w.cfg.ByteOrder.PutUint16(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	w.cfg.ByteOrder.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	buf := make([]byte, 8)
	w.cfg.ByteOrder.PutUint64(buf, v)
	return w.WriteBytes(buf)
}

// WriteUintN writes an unsigned integer using n bytes (1, 2, 4, or 8).
func (w *Writer) WriteUintN(v uint64, n int) error {
	buf := make([]byte, n)
	switch n {
	case 1:
		buf[0] = uint8(v)
	case 2:
		w.cfg.ByteOrder.PutUint16(buf, uint16(v))
	case 4:
		w.cfg.ByteOrder.PutUint32(buf, uint32(v))
	case 8:
		w.cfg.ByteOrder.PutUint64(buf, v)
	default:
		for i := 0; i < n; i++ {
			buf[i] = byte(v >> (8 * i))
		}
	}
	return w.WriteBytes(buf)
}

// WriteOffset writes a file offset using the configured offset width.
func (w *Writer) WriteOffset(v uint64) error {
	return w.WriteUintN(v, w.cfg.OffsetSize)
}

// WriteLength writes a length using the configured length width.
func (w *Writer) WriteLength(v uint64) error {
	return w.WriteUintN(v, w.cfg.LengthSize)
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// UndefinedOffset returns the all-ones sentinel HDF5 uses for
// undefined addresses, sized to the configured offset width.
func (w *Writer) UndefinedOffset() uint64 {
	if w.cfg.OffsetSize >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(w.cfg.OffsetSize*8) - 1
}

// Buffer is an in-memory, growable io.WriterAt used to stage metadata
// blocks before checksumming.
type Buffer struct {
	buf []byte
}

// WriteAt implements io.WriterAt, growing the buffer as needed.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if need := int(off) + len(p); need > len(b.buf) {
		grown := make([]byte, need)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// Bytes returns the first n bytes of the buffer.
func (b *Buffer) Bytes(n int64) []byte {
	return b.buf[:n]
}
