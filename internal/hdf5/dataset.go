package hdf5

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Dataset is an n-dimensional float64 array.
type Dataset struct {
	file *File
	name string
	info *objectInfo
}

// CreateDataset writes a float64 dataset with the given dimensions in
// one shot. With singleChunk the data is stored as one chunk spanning
// the whole dataset; otherwise contiguously.
// The layouts are byte-identical apart from metadata, so readers see
// the same values either way.
func (g *Group) CreateDataset(name string, dims []uint64, data []float64, singleChunk bool) error {
	if !g.file.writable {
		return ErrReadOnly
	}
	if name == "" {
		return fmt.Errorf("dataset name cannot be empty")
	}
	total := uint64(1)
	for _, d := range dims {
		total *= d
	}
	if total != uint64(len(data)) {
		return fmt.Errorf("dataset %q: %d values for shape %v", name, len(data), dims)
	}

	raw := encodeFloat64(data)
	dataAddr := g.file.allocate(len(raw))
	if err := g.file.w.At(int64(dataAddr)).WriteBytes(raw); err != nil {
		return fmt.Errorf("writing dataset %q data: %w", name, err)
	}

	var lo *layoutMsg
	if singleChunk {
		lo = newSingleChunkLayout(dims, 8, dataAddr)
	} else {
		lo = newContiguousLayout(dataAddr, uint64(len(raw)))
	}
	msgs := []message{
		&dataspaceMsg{dims: dims},
		float64Type(),
		lo,
	}

	headerAddr := g.file.allocate(headerSize(g.file.w, msgs, 0))
	if err := writeHeader(g.file.w.At(int64(headerAddr)), msgs, 0); err != nil {
		return fmt.Errorf("writing dataset %q header: %w", name, err)
	}
	if err := g.addLink(name, headerAddr); err != nil {
		return fmt.Errorf("linking dataset %q: %w", name, err)
	}
	return nil
}

// Name returns the dataset's link name.
func (d *Dataset) Name() string { return d.name }

// Dims returns the dataset's dimensions.
func (d *Dataset) Dims() []uint64 { return d.info.dims }

// ReadFloat64 reads the full dataset as a flat row-major slice.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	if d.info.dtype.class != classFloat || d.info.dtype.size != 8 {
		return nil, fmt.Errorf("dataset %q is not float64", d.name)
	}
	if d.info.layout.addr == undefinedAddr {
		return nil, fmt.Errorf("dataset %q has no allocated storage", d.name)
	}
	raw, err := d.file.r.At(int64(d.info.layout.addr)).ReadBytes(int(d.info.layout.byteSize))
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q: %w", d.name, err)
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

// encodeFloat64 encodes values as little-endian IEEE doubles.
func encodeFloat64(values []float64) []byte {
	raw := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return raw
}
