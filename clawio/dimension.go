package clawio

import "fmt"

// Dimension describes one spatial axis of a patch: a uniformly spaced
// interval [Lower, Upper) divided into NumCells cells. NumCells is the
// patch-global cell count, identical on every process.
type Dimension struct {
	Name     string
	NumCells int
	Lower    float64
	Upper    float64
	Units    string // empty when the axis has no unit annotation
}

// Delta returns the cell width, (Upper-Lower)/NumCells.
func (d Dimension) Delta() float64 {
	return (d.Upper - d.Lower) / float64(d.NumCells)
}

// validate checks the descriptor's basic invariants.
func (d Dimension) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: dimension without a name", ErrConfiguration)
	}
	if d.NumCells < 1 {
		return fmt.Errorf("%w: dimension %q has %d cells", ErrConfiguration, d.Name, d.NumCells)
	}
	if !(d.Lower < d.Upper) {
		return fmt.Errorf("%w: dimension %q has empty extent [%g, %g)", ErrConfiguration, d.Name, d.Lower, d.Upper)
	}
	return nil
}
