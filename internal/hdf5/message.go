package hdf5

import (
	"fmt"

	"github.com/clawgo/clawio/internal/binary"
)

// Header message type IDs for the subset of messages a frame file uses.
const (
	msgNil       = 0x00
	msgDataspace = 0x01
	msgLinkInfo  = 0x02
	msgDatatype  = 0x03
	msgLink      = 0x06
	msgLayout    = 0x08
	msgGroupInfo = 0x0A
	msgAttribute = 0x0C
)

// undefinedAddr is the HDF5 sentinel for an unset file address.
const undefinedAddr = ^uint64(0)

// message is a header message that can be serialized into a version 2
// object header.
type message interface {
	id() uint8
	size(w *binary.Writer) int
	encode(w *binary.Writer) error
}

// linkInfoMsg is a minimal Link Info message: no creation tracking, and
// undefined fractal heap / name index addresses. The HDF5 library
// expects both address fields even when undefined.
type linkInfoMsg struct{}

func (m *linkInfoMsg) id() uint8 { return msgLinkInfo }

func (m *linkInfoMsg) size(w *binary.Writer) int {
	return 2 + 2*w.OffsetSize()
}

func (m *linkInfoMsg) encode(w *binary.Writer) error {
	if err := w.WriteUint8(0); err != nil { // version
		return err
	}
	if err := w.WriteUint8(0); err != nil { // flags
		return err
	}
	if err := w.WriteOffset(w.UndefinedOffset()); err != nil {
		return err
	}
	return w.WriteOffset(w.UndefinedOffset())
}

// groupInfoMsg is a minimal Group Info message with no optional fields.
type groupInfoMsg struct{}

func (m *groupInfoMsg) id() uint8 { return msgGroupInfo }

func (m *groupInfoMsg) size(w *binary.Writer) int { return 2 }

func (m *groupInfoMsg) encode(w *binary.Writer) error {
	if err := w.WriteUint8(0); err != nil { // version
		return err
	}
	return w.WriteUint8(0) // flags
}

// linkMsg is a version 1 hard link to a child object header.
type linkMsg struct {
	name string
	addr uint64
}

func (m *linkMsg) id() uint8 { return msgLink }

// nameLenWidth returns the byte width of the name length field and the
// corresponding flag bits.
func (m *linkMsg) nameLenWidth() (int, uint8) {
	n := len(m.name)
	switch {
	case n <= 0xFF:
		return 1, 0
	case n <= 0xFFFF:
		return 2, 1
	case n <= 0xFFFFFFFF:
		return 4, 2
	default:
		return 8, 3
	}
}

func (m *linkMsg) size(w *binary.Writer) int {
	width, _ := m.nameLenWidth()
	return 2 + width + len(m.name) + w.OffsetSize()
}

func (m *linkMsg) encode(w *binary.Writer) error {
	width, bits := m.nameLenWidth()
	if err := w.WriteUint8(1); err != nil { // version
		return err
	}
	// Hard links carry no explicit type byte; flags hold only the name
	// length width.
	if err := w.WriteUint8(bits); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(len(m.name)), width); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(m.name)); err != nil {
		return err
	}
	return w.WriteOffset(m.addr)
}

// dataspaceMsg is a version 2 dataspace, either scalar or simple.
type dataspaceMsg struct {
	dims []uint64 // nil means scalar
}

func (m *dataspaceMsg) id() uint8 { return msgDataspace }

func (m *dataspaceMsg) size(w *binary.Writer) int {
	return 4 + len(m.dims)*w.LengthSize()
}

func (m *dataspaceMsg) encode(w *binary.Writer) error {
	if err := w.WriteUint8(2); err != nil { // version
		return err
	}
	if err := w.WriteUint8(uint8(len(m.dims))); err != nil { // rank
		return err
	}
	if err := w.WriteUint8(0); err != nil { // flags: no max dims
		return err
	}
	spaceType := uint8(0) // scalar
	if len(m.dims) > 0 {
		spaceType = 1 // simple
	}
	if err := w.WriteUint8(spaceType); err != nil {
		return err
	}
	for _, d := range m.dims {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

// Datatype classes used by frame files.
const (
	classFixed  = 0
	classFloat  = 1
	classString = 3
)

// datatypeMsg is a version 1 datatype message covering IEEE float64,
// signed int64, and fixed-length ASCII strings.
type datatypeMsg struct {
	class     uint8
	classBits uint32
	byteSize  uint32
	props     []byte
}

// ieee float64 properties: bit offset, precision 64, exponent at 52
// width 11, mantissa at 0 width 52, bias 1023.
var float64Props = []byte{0, 0, 64, 0, 52, 11, 0, 52, 255, 3, 0, 0}

func float64Type() *datatypeMsg {
	return &datatypeMsg{
		class: classFloat,
		// little-endian, normalized mantissa MSB set, sign bit at 63
		classBits: 1<<5 | 63<<8,
		byteSize:  8,
		props:     float64Props,
	}
}

func int64Type() *datatypeMsg {
	return &datatypeMsg{
		class:     classFixed,
		classBits: 0x08, // little-endian, signed
		byteSize:  8,
		props:     []byte{0, 0, 64, 0}, // bit offset 0, precision 64
	}
}

// fixedStringType describes null-terminated ASCII strings of n bytes.
func fixedStringType(n int) *datatypeMsg {
	return &datatypeMsg{
		class:     classString,
		classBits: 0, // null-terminated, ASCII
		byteSize:  uint32(n),
	}
}

func (m *datatypeMsg) id() uint8 { return msgDatatype }

func (m *datatypeMsg) size(w *binary.Writer) int {
	return 8 + len(m.props)
}

func (m *datatypeMsg) encode(w *binary.Writer) error {
	if err := w.WriteUint8(m.class | 1<<4); err != nil { // class + version 1
		return err
	}
	if err := w.WriteUint8(uint8(m.classBits)); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.classBits >> 8)); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.classBits >> 16)); err != nil {
		return err
	}
	if err := w.WriteUint32(m.byteSize); err != nil {
		return err
	}
	return w.WriteBytes(m.props)
}

// attrMsg is a version 3 attribute message.
type attrMsg struct {
	name  string
	dtype *datatypeMsg
	space *dataspaceMsg
	data  []byte
}

func (m *attrMsg) id() uint8 { return msgAttribute }

func (m *attrMsg) size(w *binary.Writer) int {
	// version, flags, name size, datatype size, dataspace size,
	// encoding, then the three payloads and the raw data
	return 9 + len(m.name) + 1 + m.dtype.size(w) + m.space.size(w) + len(m.data)
}

func (m *attrMsg) encode(w *binary.Writer) error {
	if err := w.WriteUint8(3); err != nil { // version
		return err
	}
	if err := w.WriteUint8(0); err != nil { // flags
		return err
	}
	if err := w.WriteUint16(uint16(len(m.name) + 1)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(m.dtype.size(w))); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(m.space.size(w))); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil { // name encoding: ASCII
		return err
	}
	if err := w.WriteBytes([]byte(m.name)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil { // name terminator
		return err
	}
	if err := m.dtype.encode(w); err != nil {
		return err
	}
	if err := m.space.encode(w); err != nil {
		return err
	}
	return w.WriteBytes(m.data)
}

// layoutMsg is a data layout message: version 3 contiguous, or version
// 4 chunked with the Single Chunk index and one chunk covering the
// whole dataset.
type layoutMsg struct {
	chunked bool

	// contiguous
	addr     uint64
	byteSize uint64

	// chunked: per-dimension chunk sizes plus the element size as the
	// trailing pseudo-dimension, per the version 4 layout format
	chunkDims []uint32
}

func newContiguousLayout(addr, size uint64) *layoutMsg {
	return &layoutMsg{addr: addr, byteSize: size}
}

// newSingleChunkLayout builds a chunked layout whose one chunk spans
// dims entirely. addr is where the chunk's data lives.
func newSingleChunkLayout(dims []uint64, elemSize uint32, addr uint64) *layoutMsg {
	cd := make([]uint32, len(dims)+1)
	for i, d := range dims {
		cd[i] = uint32(d)
	}
	cd[len(dims)] = elemSize
	return &layoutMsg{chunked: true, addr: addr, chunkDims: cd}
}

// chunkDimWidth returns the byte width used to encode chunk dimensions.
func (m *layoutMsg) chunkDimWidth() int {
	width := 1
	for _, d := range m.chunkDims {
		if d > 0xFFFF {
			return 4
		}
		if d > 0xFF {
			width = 2
		}
	}
	return width
}

func (m *layoutMsg) id() uint8 { return msgLayout }

func (m *layoutMsg) size(w *binary.Writer) int {
	if !m.chunked {
		return 2 + w.OffsetSize() + w.LengthSize()
	}
	// version, class, flags, ndims, dim width, dims, index type, addr
	return 5 + len(m.chunkDims)*m.chunkDimWidth() + 1 + w.OffsetSize()
}

func (m *layoutMsg) encode(w *binary.Writer) error {
	if !m.chunked {
		if err := w.WriteUint8(3); err != nil { // version
			return err
		}
		if err := w.WriteUint8(1); err != nil { // class: contiguous
			return err
		}
		if err := w.WriteOffset(m.addr); err != nil {
			return err
		}
		return w.WriteLength(m.byteSize)
	}

	if err := w.WriteUint8(4); err != nil { // version
		return err
	}
	if err := w.WriteUint8(2); err != nil { // class: chunked
		return err
	}
	if err := w.WriteUint8(0); err != nil { // flags
		return err
	}
	if err := w.WriteUint8(uint8(len(m.chunkDims))); err != nil {
		return err
	}
	width := m.chunkDimWidth()
	if err := w.WriteUint8(uint8(width)); err != nil {
		return err
	}
	for _, d := range m.chunkDims {
		if err := w.WriteUintN(uint64(d), width); err != nil {
			return err
		}
	}
	if err := w.WriteUint8(chunkIndexSingle); err != nil {
		return err
	}
	return w.WriteOffset(m.addr)
}

// Chunk index types for version 4 layouts. Only the Single Chunk index
// is produced; one full-size chunk needs no lookup structure.
const (
	chunkIndexSingle   = 1
	chunkIndexImplicit = 2
)

// errFormat reports a malformed structure found while reading.
func errFormat(what string) error {
	return fmt.Errorf("malformed hdf5 structure: %s", what)
}
