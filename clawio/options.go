package clawio

import "fmt"

// Compression identifies a dataset compression codec.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionLZF
	CompressionSzip
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionLZF:
		return "lzf"
	case CompressionSzip:
		return "szip"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ChunkMode selects how dataset storage is chunked.
type ChunkMode uint8

const (
	// ChunksNone stores datasets contiguously.
	ChunksNone ChunkMode = iota
	// ChunksAuto stores each dataset as a single chunk spanning its
	// full extent.
	ChunksAuto
	// ChunksExplicit uses a caller-provided chunk shape. Under
	// collective writes only shapes covering the full dataset are
	// accepted.
	ChunksExplicit
)

// FrameOptions are the per-frame dataset settings. The zero value is
// the default: contiguous storage, no filters, solution array only.
type FrameOptions struct {
	Compression Compression
	GzipLevel   int
	ChunkMode   ChunkMode
	ChunkShape  []int
	Shuffle     bool
	Fletcher32  bool
	WriteAux    bool
	WriteP      bool
}

// FrameOption mutates FrameOptions during merging.
type FrameOption func(*FrameOptions)

// WithCompression selects a compression codec. level is the gzip
// level (0-9) and is ignored by other codecs.
func WithCompression(c Compression, level int) FrameOption {
	return func(o *FrameOptions) {
		o.Compression = c
		o.GzipLevel = level
	}
}

// WithChunks requests an explicit chunk shape.
func WithChunks(shape ...int) FrameOption {
	return func(o *FrameOptions) {
		o.ChunkMode = ChunksExplicit
		o.ChunkShape = shape
	}
}

// WithAutoChunks requests one full-extent chunk per dataset.
func WithAutoChunks() FrameOption {
	return func(o *FrameOptions) {
		o.ChunkMode = ChunksAuto
		o.ChunkShape = nil
	}
}

// WithShuffle enables the byte shuffle filter.
func WithShuffle() FrameOption {
	return func(o *FrameOptions) { o.Shuffle = true }
}

// WithFletcher32 enables the Fletcher-32 checksum filter.
func WithFletcher32() FrameOption {
	return func(o *FrameOptions) { o.Fletcher32 = true }
}

// WithAux also writes the auxiliary array of states that carry one.
func WithAux() FrameOption {
	return func(o *FrameOptions) { o.WriteAux = true }
}

// WithProcessed writes each state's derived (processed) array in place
// of the raw solution array.
func WithProcessed() FrameOption {
	return func(o *FrameOptions) { o.WriteP = true }
}

// MergeOptions folds opts over the defaults and validates the result
// for collective writing. Merging is idempotent: applying an option
// set to its own result changes nothing.
//
// Filters are where parallel HDF5 gets dangerous: compressed or
// filtered datasets cannot be written collectively, and failures would
// otherwise surface deep inside the I/O path on some ranks only. All
// filters are therefore rejected here, before any file exists.
func MergeOptions(opts ...FrameOption) (FrameOptions, error) {
	var o FrameOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch o.Compression {
	case CompressionNone:
	case CompressionGzip:
		if o.GzipLevel < 0 || o.GzipLevel > 9 {
			return FrameOptions{}, fmt.Errorf("%w: gzip level %d outside 0-9", ErrConfiguration, o.GzipLevel)
		}
		return FrameOptions{}, fmt.Errorf("%w: %s compression is unsupported under collective writes", ErrConfiguration, o.Compression)
	case CompressionLZF, CompressionSzip:
		return FrameOptions{}, fmt.Errorf("%w: %s compression is unsupported under collective writes", ErrConfiguration, o.Compression)
	default:
		return FrameOptions{}, fmt.Errorf("%w: unknown compression %d", ErrConfiguration, o.Compression)
	}

	if o.Shuffle {
		return FrameOptions{}, fmt.Errorf("%w: shuffle filter is unsupported under collective writes", ErrConfiguration)
	}
	if o.Fletcher32 {
		return FrameOptions{}, fmt.Errorf("%w: fletcher32 filter is unsupported under collective writes", ErrConfiguration)
	}

	if o.ChunkMode == ChunksExplicit {
		if len(o.ChunkShape) == 0 {
			return FrameOptions{}, fmt.Errorf("%w: explicit chunking without a chunk shape", ErrConfiguration)
		}
		for _, c := range o.ChunkShape {
			if c < 1 {
				return FrameOptions{}, fmt.Errorf("%w: chunk shape %v has non-positive extent", ErrConfiguration, o.ChunkShape)
			}
		}
	}

	return o, nil
}
