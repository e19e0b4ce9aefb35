package clawio

import "fmt"

// Hyperslab is a process's assignment within a patch dataset of shape
// [components] + global cell shape: the full component axis first,
// then one owned cell range per spatial dimension, in storage order.
type Hyperslab struct {
	Components Range
	Spatial    []Range
}

// ResolveHyperslab computes the hyperslab a process writes for a patch
// dataset with numComponents leading components. Patches of rank 0 or
// above 3 are rejected with ErrUnsupportedRank. A patch without local
// ranges resolves to an empty hyperslab; the process contributes no
// cells but the assignment is still well-formed.
func ResolveHyperslab(numComponents int, p *Patch) (Hyperslab, error) {
	k := p.Rank()
	if k < 1 || k > 3 {
		return Hyperslab{}, fmt.Errorf("%w: patch %d has %d spatial dimensions, want 1-3", ErrUnsupportedRank, p.Index, k)
	}
	if numComponents < 1 {
		return Hyperslab{}, fmt.Errorf("%w: %d components", ErrConfiguration, numComponents)
	}
	if err := p.validate(); err != nil {
		return Hyperslab{}, err
	}

	spatial := make([]Range, k)
	if p.LocalRanges != nil {
		copy(spatial, p.LocalRanges)
	}
	return Hyperslab{
		Components: Range{End: numComponents},
		Spatial:    spatial,
	}, nil
}

// IsEmpty reports whether the hyperslab selects no cells.
func (h Hyperslab) IsEmpty() bool {
	for _, r := range h.Spatial {
		if r.Len() == 0 {
			return true
		}
	}
	return false
}

// Scatter copies the local block into its place inside dst, the flat
// row-major global array of shape [components] + globalShape. local
// must hold components * local-cell values, also row-major. Regions of
// distinct processes are disjoint, so concurrent scatters into a
// shared destination are safe.
func (h Hyperslab) Scatter(local []float64, globalShape []int, dst []float64) error {
	nc := h.Components.Len()
	if len(globalShape) != len(h.Spatial) {
		return fmt.Errorf("%w: %d-d hyperslab for %d-d array", ErrConfiguration, len(h.Spatial), len(globalShape))
	}

	localShape := make([]int, len(h.Spatial))
	cells := 1
	for i, r := range h.Spatial {
		localShape[i] = r.Len()
		cells *= r.Len()
	}
	if len(local) != nc*cells {
		return fmt.Errorf("%w: %d local values for hyperslab of %d", ErrConfiguration, len(local), nc*cells)
	}
	if cells == 0 {
		return nil
	}

	// Row-major strides over the global cell block.
	k := len(globalShape)
	strides := make([]int, k)
	strides[k-1] = 1
	for i := k - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * globalShape[i+1]
	}
	compStride := strides[0] * globalShape[0]

	// Copy row by row: the innermost local dimension is contiguous in
	// both arrays.
	rowLen := localShape[k-1]
	rows := cells / rowLen
	coords := make([]int, k-1)

	for c := 0; c < nc; c++ {
		for i := range coords {
			coords[i] = 0
		}
		src := local[c*cells:]
		base := c * compStride
		for row := 0; row < rows; row++ {
			off := base + (h.Spatial[k-1].Start)
			for i := 0; i < k-1; i++ {
				off += (h.Spatial[i].Start + coords[i]) * strides[i]
			}
			copy(dst[off:off+rowLen], src[row*rowLen:(row+1)*rowLen])

			// odometer over the leading local dimensions
			for i := k - 2; i >= 0; i-- {
				coords[i]++
				if coords[i] < localShape[i] {
					break
				}
				coords[i] = 0
			}
		}
	}
	return nil
}
