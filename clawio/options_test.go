package clawio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeOptionsDefaults(t *testing.T) {
	o, err := MergeOptions()
	require.NoError(t, err)
	require.Equal(t, FrameOptions{}, o)
	require.Equal(t, CompressionNone, o.Compression)
	require.Equal(t, ChunksNone, o.ChunkMode)
	require.False(t, o.WriteAux)
	require.False(t, o.WriteP)
}

func TestMergeOptionsIdempotent(t *testing.T) {
	once, err := MergeOptions(WithAux(), WithProcessed(), WithAutoChunks())
	require.NoError(t, err)

	twice, err := MergeOptions(
		WithAux(), WithProcessed(), WithAutoChunks(),
		WithAux(), WithProcessed(), WithAutoChunks(),
	)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestMergeOptionsRejectsFilters(t *testing.T) {
	tests := []struct {
		name string
		opts []FrameOption
	}{
		{"gzip", []FrameOption{WithCompression(CompressionGzip, 6)}},
		{"lzf", []FrameOption{WithCompression(CompressionLZF, 0)}},
		{"szip", []FrameOption{WithCompression(CompressionSzip, 0)}},
		{"shuffle", []FrameOption{WithShuffle()}},
		{"fletcher32", []FrameOption{WithFletcher32()}},
		{"unknown", []FrameOption{WithCompression(Compression(42), 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeOptions(tt.opts...)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestMergeOptionsGzipLevelBounds(t *testing.T) {
	_, err := MergeOptions(WithCompression(CompressionGzip, 12))
	require.ErrorIs(t, err, ErrConfiguration)
	require.Contains(t, err.Error(), "gzip level")

	_, err = MergeOptions(WithCompression(CompressionGzip, -1))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestMergeOptionsChunkShapes(t *testing.T) {
	o, err := MergeOptions(WithChunks(3, 10, 10))
	require.NoError(t, err)
	require.Equal(t, ChunksExplicit, o.ChunkMode)
	require.Equal(t, []int{3, 10, 10}, o.ChunkShape)

	_, err = MergeOptions(WithChunks())
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = MergeOptions(WithChunks(3, 0, 10))
	require.ErrorIs(t, err, ErrConfiguration)
}
