package clawio

import "fmt"

// State is one patch's solution at a moment in simulation time, from
// this process's point of view: the arrays hold only the locally owned
// cells, flat and row-major with the component axis leading.
type State struct {
	Patch *Patch

	// T is the simulation time of the frame.
	T float64

	// NumEqn is the number of solution components.
	NumEqn int

	// NumAux is the number of auxiliary components; zero when the
	// solver carries none.
	NumAux int

	// Q is the solution array, shape [NumEqn] + local cell shape.
	Q []float64

	// Aux is the auxiliary array, shape [NumAux] + local cell shape.
	// Nil when NumAux is zero or the process owns no cells.
	Aux []float64

	// P is an optional derived array with the same shape as Q, written
	// in place of Q when the frame requests processed output.
	P []float64
}

// validate checks component counts and array lengths against the patch.
func (s *State) validate(o FrameOptions) error {
	if s.Patch == nil {
		return fmt.Errorf("%w: state without a patch", ErrConfiguration)
	}
	if err := s.Patch.validate(); err != nil {
		return err
	}
	if s.NumEqn < 1 {
		return fmt.Errorf("%w: patch %d has %d solution components", ErrConfiguration, s.Patch.Index, s.NumEqn)
	}
	if s.NumAux < 0 {
		return fmt.Errorf("%w: patch %d has negative aux count", ErrConfiguration, s.Patch.Index)
	}

	cells := s.Patch.LocalCells()
	src := s.Q
	if o.WriteP {
		src = s.P
		if src == nil {
			return fmt.Errorf("%w: patch %d has no processed array", ErrConfiguration, s.Patch.Index)
		}
	}
	if len(src) != s.NumEqn*cells {
		return fmt.Errorf("%w: patch %d solution array has %d values, want %d",
			ErrConfiguration, s.Patch.Index, len(src), s.NumEqn*cells)
	}
	if o.WriteAux && s.NumAux > 0 {
		if len(s.Aux) != s.NumAux*cells {
			return fmt.Errorf("%w: patch %d aux array has %d values, want %d",
				ErrConfiguration, s.Patch.Index, len(s.Aux), s.NumAux*cells)
		}
	}
	return nil
}
