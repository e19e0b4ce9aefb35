package clawio

import "fmt"

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// Patch describes one block of the simulation domain. Every process in
// the group describes the same patches with the same dimensions; only
// LocalRanges differs, naming the sub-block of cells this process owns.
//
// Ghost (halo) cells are excluded throughout: NumCells counts interior
// cells and LocalRanges index into them.
type Patch struct {
	// Index identifies the patch within the frame and names its group
	// in the container.
	Index int

	// Level is the AMR refinement level, when the solver tracks one.
	Level *int

	// NumGhost is the ghost cell width the solver ran with, when known.
	// It is metadata only; ghost cells are never written.
	NumGhost *int

	// Dimensions are the spatial axes in storage order.
	Dimensions []Dimension

	// LocalRanges holds this process's owned cell range per dimension.
	// A nil slice means the process owns no cells of the patch but
	// still participates in the collective metadata operations.
	LocalRanges []Range
}

// Rank returns the spatial dimensionality.
func (p *Patch) Rank() int { return len(p.Dimensions) }

// GlobalShape returns the patch-global cell counts per dimension.
func (p *Patch) GlobalShape() []int {
	shape := make([]int, len(p.Dimensions))
	for i, d := range p.Dimensions {
		shape[i] = d.NumCells
	}
	return shape
}

// LocalShape returns the owned cell counts per dimension; all zeros
// when the process owns nothing.
func (p *Patch) LocalShape() []int {
	shape := make([]int, len(p.Dimensions))
	for i := range shape {
		if p.LocalRanges != nil {
			shape[i] = p.LocalRanges[i].Len()
		}
	}
	return shape
}

// LocalCells returns the number of cells this process owns.
func (p *Patch) LocalCells() int {
	if p.LocalRanges == nil {
		return 0
	}
	n := 1
	for _, r := range p.LocalRanges {
		n *= r.Len()
	}
	return n
}

// validate checks the descriptor apart from rank, which the hyperslab
// resolver owns.
func (p *Patch) validate() error {
	for _, d := range p.Dimensions {
		if err := d.validate(); err != nil {
			return err
		}
	}
	if p.LocalRanges == nil {
		return nil
	}
	if len(p.LocalRanges) != len(p.Dimensions) {
		return fmt.Errorf("%w: patch %d has %d local ranges for %d dimensions",
			ErrConfiguration, p.Index, len(p.LocalRanges), len(p.Dimensions))
	}
	for i, r := range p.LocalRanges {
		if r.Start < 0 || r.End < r.Start || r.End > p.Dimensions[i].NumCells {
			return fmt.Errorf("%w: patch %d range [%d, %d) outside dimension %q of %d cells",
				ErrConfiguration, p.Index, r.Start, r.End, p.Dimensions[i].Name, p.Dimensions[i].NumCells)
		}
	}
	return nil
}
