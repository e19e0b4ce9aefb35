package clawio

// Attr is one encoded metadata entry destined for a patch group.
// Values are float64, int64, string, or []string.
type Attr struct {
	Name  string
	Value interface{}
}

// PatchAttrs encodes a state's metadata as the ordered attribute list
// of its patch group. Optional fields that are absent produce no
// attribute at all; readers distinguish "not tracked" from any real
// value by the attribute's absence.
func PatchAttrs(s *State) []Attr {
	p := s.Patch
	attrs := []Attr{
		{Name: "t", Value: s.T},
		{Name: "num_eqn", Value: int64(s.NumEqn)},
		{Name: "num_aux", Value: int64(s.NumAux)},
	}
	if p.NumGhost != nil {
		attrs = append(attrs, Attr{Name: "num_ghost", Value: int64(*p.NumGhost)})
	}
	attrs = append(attrs, Attr{Name: "patch_index", Value: int64(p.Index)})
	if p.Level != nil {
		attrs = append(attrs, Attr{Name: "level", Value: int64(*p.Level)})
	}

	names := make([]string, len(p.Dimensions))
	for i, d := range p.Dimensions {
		names[i] = d.Name
	}
	attrs = append(attrs, Attr{Name: "dimensions", Value: names})

	for _, d := range p.Dimensions {
		attrs = append(attrs,
			Attr{Name: d.Name + ".num_cells", Value: int64(d.NumCells)},
			Attr{Name: d.Name + ".lower", Value: d.Lower},
			Attr{Name: d.Name + ".delta", Value: d.Delta()},
			Attr{Name: d.Name + ".upper", Value: d.Upper},
		)
		if d.Units != "" {
			attrs = append(attrs, Attr{Name: d.Name + ".units", Value: d.Units})
		}
	}
	return attrs
}
