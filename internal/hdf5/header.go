package hdf5

import (
	"bytes"
	"encoding/binary"
	"math"

	binpkg "github.com/clawgo/clawio/internal/binary"
)

var headerSignature = []byte("OHDR")

// minGroupChunk pads group headers to at least this many message bytes
// so the header can be rewritten in place by other HDF5 tools.
const minGroupChunk = 120

// writeHeader writes a version 2 object header at the writer's current
// position. The header is staged in memory so the trailing lookup3
// checksum can cover it. When the messages fall short of minChunk, a
// NIL message pads the gap.
func writeHeader(w *binpkg.Writer, msgs []message, minChunk int) error {
	messagesSize := 0
	for _, m := range msgs {
		messagesSize += 4 + m.size(w) // type(1) + size(2) + flags(1)
	}

	chunkSize := chunkSizeFor(messagesSize, minChunk)
	padding := chunkSize - messagesSize

	chunkField := chunkFieldWidth(chunkSize)

	buf := &binpkg.Buffer{}
	bw := binpkg.NewWriter(buf, binpkg.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})

	if err := bw.WriteBytes(headerSignature); err != nil {
		return err
	}
	if err := bw.WriteUint8(2); err != nil { // version
		return err
	}
	// Flags encode only the chunk size field width; no times, no
	// attribute phase change values.
	if err := bw.WriteUint8(uint8(chunkField - 1)); err != nil {
		return err
	}
	if err := bw.WriteUintN(uint64(chunkSize), chunkField); err != nil {
		return err
	}

	for _, m := range msgs {
		if err := bw.WriteUint8(m.id()); err != nil {
			return err
		}
		if err := bw.WriteUint16(uint16(m.size(bw))); err != nil {
			return err
		}
		if err := bw.WriteUint8(0); err != nil { // message flags
			return err
		}
		if err := m.encode(bw); err != nil {
			return err
		}
	}

	if padding > 0 {
		// NIL message absorbing the slack: its own 4-byte prefix
		// counts toward the padding. chunkSizeFor guarantees the
		// prefix fits.
		nilData := padding - 4
		if err := bw.WriteUint8(msgNil); err != nil {
			return err
		}
		if err := bw.WriteUint16(uint16(nilData)); err != nil {
			return err
		}
		if err := bw.WriteUint8(0); err != nil {
			return err
		}
		if err := bw.WriteZeros(nilData); err != nil {
			return err
		}
	}

	sum := binpkg.Lookup3(buf.Bytes(bw.Pos()))
	if err := bw.WriteUint32(sum); err != nil {
		return err
	}

	return w.WriteBytes(buf.Bytes(bw.Pos()))
}

// headerSize returns the on-disk size of the header writeHeader would
// produce for msgs.
func headerSize(w *binpkg.Writer, msgs []message, minChunk int) int {
	messagesSize := 0
	for _, m := range msgs {
		messagesSize += 4 + m.size(w)
	}
	chunkSize := chunkSizeFor(messagesSize, minChunk)
	return 4 + 1 + 1 + chunkFieldWidth(chunkSize) + chunkSize + 4
}

// chunkSizeFor returns the header chunk size for messagesSize bytes of
// messages padded to at least minChunk. Any padding is carried by a
// NIL message whose 4-byte prefix must itself fit, so slack of 1-3
// bytes rounds the chunk up instead of shorting the prefix.
func chunkSizeFor(messagesSize, minChunk int) int {
	chunkSize := messagesSize
	if chunkSize < minChunk {
		chunkSize = minChunk
	}
	if pad := chunkSize - messagesSize; pad > 0 && pad < 4 {
		chunkSize = messagesSize + 4
	}
	return chunkSize
}

func chunkFieldWidth(size int) int {
	switch {
	case size <= 0xFF:
		return 1
	case size <= 0xFFFF:
		return 2
	case size <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// objectInfo is the decoded content of an object header: the subset of
// messages a frame file contains.
type objectInfo struct {
	links []linkMsg
	attrs []Attr

	// dataset messages, zero-valued for groups
	dims     []uint64
	dtype    dtInfo
	layout   layoutInfo
	hasSpace bool
}

type dtInfo struct {
	class  uint8
	size   uint32
	signed bool
}

type layoutInfo struct {
	chunked  bool
	addr     uint64
	byteSize uint64
}

// readHeader parses a version 2 object header at addr.
func readHeader(r *binpkg.Reader, addr uint64) (*objectInfo, error) {
	hr := r.At(int64(addr))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, headerSignature) {
		return nil, errFormat("object header signature")
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, errFormat("object header version")
	}
	flags, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&0x20 != 0 {
		hr.ReadBytes(16) // access/mod/change/birth times
	}
	if flags&0x10 != 0 {
		hr.ReadBytes(4) // attribute phase change values
	}
	chunkSize, err := hr.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}

	info := &objectInfo{}
	remaining := int(chunkSize)
	for remaining >= 4 {
		id, err := hr.ReadUint8()
		if err != nil {
			return nil, err
		}
		size, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if _, err := hr.ReadUint8(); err != nil { // message flags
			return nil, err
		}
		data, err := hr.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		remaining -= 4 + int(size)

		if err := info.apply(id, data, r); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// apply folds one raw message into the object info.
func (info *objectInfo) apply(id uint8, data []byte, r *binpkg.Reader) error {
	switch id {
	case msgLink:
		name, addr, err := parseLink(data, r.OffsetSize())
		if err != nil {
			return err
		}
		info.links = append(info.links, linkMsg{name: name, addr: addr})
	case msgAttribute:
		attr, err := parseAttribute(data, r.LengthSize())
		if err != nil {
			return err
		}
		info.attrs = append(info.attrs, attr)
	case msgDataspace:
		dims, err := parseDataspace(data, r.LengthSize())
		if err != nil {
			return err
		}
		info.dims = dims
		info.hasSpace = true
	case msgDatatype:
		dt, err := parseDatatype(data)
		if err != nil {
			return err
		}
		info.dtype = dt
	case msgLayout:
		lo, err := parseLayout(data, r.OffsetSize(), r.LengthSize())
		if err != nil {
			return err
		}
		info.layout = lo
	}
	return nil
}

func parseLink(data []byte, offsetSize int) (string, uint64, error) {
	if len(data) < 2 {
		return "", 0, errFormat("link message")
	}
	flags := data[1]
	off := 2
	if flags&0x08 != 0 {
		if data[off] != 0 {
			return "", 0, errFormat("non-hard link")
		}
		off++
	}
	if flags&0x04 != 0 {
		off += 8 // creation order
	}
	if flags&0x10 != 0 {
		off++ // charset
	}
	nameWidth := 1 << (flags & 0x03)
	if off+nameWidth > len(data) {
		return "", 0, errFormat("link name length")
	}
	nameLen := int(decodeLE(data[off : off+nameWidth]))
	off += nameWidth
	if off+nameLen+offsetSize > len(data) {
		return "", 0, errFormat("link name")
	}
	name := string(data[off : off+nameLen])
	off += nameLen
	addr := decodeLE(data[off : off+offsetSize])
	return name, addr, nil
}

func parseAttribute(data []byte, lengthSize int) (Attr, error) {
	if len(data) < 9 || data[0] != 3 {
		return Attr{}, errFormat("attribute message")
	}
	nameSize := int(binary.LittleEndian.Uint16(data[2:]))
	dtSize := int(binary.LittleEndian.Uint16(data[4:]))
	dsSize := int(binary.LittleEndian.Uint16(data[6:]))
	off := 9
	if off+nameSize+dtSize+dsSize > len(data) {
		return Attr{}, errFormat("attribute payload")
	}
	name := cString(data[off : off+nameSize])
	off += nameSize
	dt, err := parseDatatype(data[off : off+dtSize])
	if err != nil {
		return Attr{}, err
	}
	off += dtSize
	dims, err := parseDataspace(data[off:off+dsSize], lengthSize)
	if err != nil {
		return Attr{}, err
	}
	off += dsSize
	value, err := decodeAttrValue(dt, dims, data[off:])
	if err != nil {
		return Attr{}, err
	}
	return Attr{Name: name, Value: value}, nil
}

func parseDataspace(data []byte, lengthSize int) ([]uint64, error) {
	if len(data) < 4 || data[0] != 2 {
		return nil, errFormat("dataspace message")
	}
	rank := int(data[1])
	if rank == 0 {
		return nil, nil // scalar
	}
	if len(data) < 4+rank*lengthSize {
		return nil, errFormat("dataspace dimensions")
	}
	dims := make([]uint64, rank)
	for i := range dims {
		dims[i] = decodeLE(data[4+i*lengthSize : 4+(i+1)*lengthSize])
	}
	return dims, nil
}

func parseDatatype(data []byte) (dtInfo, error) {
	if len(data) < 8 {
		return dtInfo{}, errFormat("datatype message")
	}
	return dtInfo{
		class:  data[0] & 0x0F,
		size:   binary.LittleEndian.Uint32(data[4:]),
		signed: data[1]&0x08 != 0,
	}, nil
}

func parseLayout(data []byte, offsetSize, lengthSize int) (layoutInfo, error) {
	if len(data) < 2 {
		return layoutInfo{}, errFormat("layout message")
	}
	version, class := data[0], data[1]
	switch {
	case version == 3 && class == 1: // contiguous
		if len(data) < 2+offsetSize+lengthSize {
			return layoutInfo{}, errFormat("contiguous layout")
		}
		return layoutInfo{
			addr:     decodeLE(data[2 : 2+offsetSize]),
			byteSize: decodeLE(data[2+offsetSize : 2+offsetSize+lengthSize]),
		}, nil
	case version == 4 && class == 2: // chunked
		if len(data) < 5 {
			return layoutInfo{}, errFormat("chunked layout")
		}
		ndims := int(data[3])
		width := int(data[4])
		off := 5
		if len(data) < off+ndims*width+1+offsetSize {
			return layoutInfo{}, errFormat("chunked layout dims")
		}
		elems := uint64(1)
		var elemSize uint64
		for i := 0; i < ndims; i++ {
			d := decodeLE(data[off : off+width])
			off += width
			if i == ndims-1 {
				elemSize = d // trailing pseudo-dimension
			} else {
				elems *= d
			}
		}
		idx := data[off]
		off++
		if idx != chunkIndexImplicit && idx != chunkIndexSingle {
			return layoutInfo{}, errFormat("chunk index type")
		}
		return layoutInfo{
			chunked:  true,
			addr:     decodeLE(data[off : off+offsetSize]),
			byteSize: elems * elemSize,
		}, nil
	default:
		return layoutInfo{}, errFormat("layout version/class")
	}
}

// decodeAttrValue turns an attribute's raw payload into a Go value.
func decodeAttrValue(dt dtInfo, dims []uint64, raw []byte) (interface{}, error) {
	switch dt.class {
	case classFloat:
		if dt.size != 8 || len(raw) < 8 {
			return nil, errFormat("float attribute")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	case classFixed:
		if dt.size != 8 || len(raw) < 8 {
			return nil, errFormat("integer attribute")
		}
		return int64(binary.LittleEndian.Uint64(raw)), nil
	case classString:
		n := int(dt.size)
		if len(dims) == 0 {
			if len(raw) < n {
				return nil, errFormat("string attribute")
			}
			return cString(raw[:n]), nil
		}
		count := int(dims[0])
		if len(raw) < count*n {
			return nil, errFormat("string list attribute")
		}
		out := make([]string, count)
		for i := range out {
			out[i] = cString(raw[i*n : (i+1)*n])
		}
		return out, nil
	default:
		return nil, errFormat("attribute datatype class")
	}
}

// cString trims b at the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func decodeLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
