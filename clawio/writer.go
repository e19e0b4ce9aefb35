package clawio

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/clawgo/clawio/internal/hdf5"
)

// Writer writes output frames on behalf of one member of a process
// group. Construct one Writer per member; Write is then called
// collectively with an identical frame description on every member.
type Writer struct {
	pg      ProcessGroup
	backend Backend
	log     logrus.FieldLogger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBackend selects the container backend.
func WithBackend(b Backend) WriterOption {
	return func(w *Writer) { w.backend = b }
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// NewWriter creates a Writer for one member of pg. Backend selection
// happens here, once; an unavailable backend never reaches Write.
func NewWriter(pg ProcessGroup, opts ...WriterOption) (*Writer, error) {
	if pg == nil {
		return nil, fmt.Errorf("%w: nil process group", ErrConfiguration)
	}
	w := &Writer{pg: pg, backend: BackendHDF5, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(w)
	}
	switch w.backend {
	case BackendHDF5:
	case BackendNetCDF:
		return nil, fmt.Errorf("%w: %s backend", ErrNotImplemented, w.backend)
	default:
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, w.backend)
	}
	return w, nil
}

// FrameName returns the file name of a frame: the prefix followed by
// the frame number zero-padded to at least four digits, with the .hdf
// extension.
func FrameName(prefix string, frame int) string {
	return fmt.Sprintf("%s%04d.hdf", prefix, frame)
}

// framePlan is one state's validated write assignment.
type framePlan struct {
	st  *State
	q   Hyperslab
	aux Hyperslab
}

// Write writes one frame: every state becomes a patch group in
// dir/<prefix><frame>.hdf, fully overwriting any previous frame of the
// same number. All members of the process group must call Write with
// the same states (modulo local ranges and arrays), frame, dir, prefix
// and options.
//
// Validation runs before any collective operation, so a rejected
// configuration returns on every member without creating the file. A
// failure after creation aborts the write and leaves the partial file
// in place.
func (w *Writer) Write(states []*State, frame int, dir, prefix string, opts ...FrameOption) error {
	fo, err := MergeOptions(opts...)
	if err != nil {
		return err
	}

	plans := make([]framePlan, 0, len(states))
	for _, st := range states {
		if err := st.validate(fo); err != nil {
			return err
		}
		pl := framePlan{st: st}
		if pl.q, err = ResolveHyperslab(st.NumEqn, st.Patch); err != nil {
			return err
		}
		if err := checkChunkShape(fo, st.NumEqn, st.Patch); err != nil {
			return err
		}
		if fo.WriteAux && st.NumAux > 0 {
			if pl.aux, err = ResolveHyperslab(st.NumAux, st.Patch); err != nil {
				return err
			}
			if err := checkChunkShape(fo, st.NumAux, st.Patch); err != nil {
				return err
			}
		}
		plans = append(plans, pl)
	}

	name := filepath.Join(dir, FrameName(prefix, frame))
	log := w.log.WithFields(logrus.Fields{
		"frame": frame,
		"path":  name,
		"rank":  w.pg.Rank(),
	})

	res, err := w.pg.Collective(func() (interface{}, error) {
		return hdf5.Create(name)
	})
	if err != nil {
		log.WithError(err).Error("creating frame container")
		return fmt.Errorf("%w: creating %s: %v", ErrIO, name, err)
	}
	f := res.(*hdf5.File)

	if err := w.writeFrame(f, plans, fo, log); err != nil {
		// No rollback: release the handle and leave the partial frame.
		w.pg.Collective(func() (interface{}, error) {
			return nil, f.Close()
		})
		return err
	}

	if _, err := w.pg.Collective(func() (interface{}, error) {
		return nil, f.Close()
	}); err != nil {
		log.WithError(err).Error("closing frame container")
		return fmt.Errorf("%w: closing %s: %v", ErrIO, name, err)
	}
	log.WithField("patches", len(plans)).Debug("frame written")
	return nil
}

// writeFrame writes every patch group and dataset of a created frame.
func (w *Writer) writeFrame(f *hdf5.File, plans []framePlan, fo FrameOptions, log logrus.FieldLogger) error {
	for _, pl := range plans {
		st := pl.st
		gname := fmt.Sprintf("patch%d", st.Patch.Index)
		attrs := PatchAttrs(st)

		res, err := w.pg.Collective(func() (interface{}, error) {
			encoded := make([]hdf5.Attr, len(attrs))
			for i, a := range attrs {
				encoded[i] = hdf5.Attr{Name: a.Name, Value: a.Value}
			}
			return f.Root().CreateGroup(gname, encoded)
		})
		if err != nil {
			log.WithError(err).WithField("patch", st.Patch.Index).Error("creating patch group")
			return fmt.Errorf("%w: patch group %s: %v", ErrIO, gname, err)
		}
		grp := res.(*hdf5.Group)

		src := st.Q
		if fo.WriteP {
			src = st.P
		}
		if err := w.writeArray(grp, "q", st.NumEqn, st.Patch, pl.q, src, fo); err != nil {
			return err
		}
		if fo.WriteAux && st.NumAux > 0 {
			if err := w.writeArray(grp, "aux", st.NumAux, st.Patch, pl.aux, st.Aux, fo); err != nil {
				return err
			}
		}
		log.WithField("patch", st.Patch.Index).Debug("patch written")
	}
	return nil
}

// writeArray assembles a dataset from every member's hyperslab and
// persists it: a collective allocation of the shared global buffer,
// a local scatter of the owned block, then a collective write. The
// scatters land in disjoint regions, and the collective entry barrier
// publishes them before the data is persisted.
func (w *Writer) writeArray(grp *hdf5.Group, name string, nc int, p *Patch, slab Hyperslab, local []float64, fo FrameOptions) error {
	global := p.GlobalShape()
	dims := make([]uint64, 0, 1+len(global))
	dims = append(dims, uint64(nc))
	total := nc
	for _, g := range global {
		dims = append(dims, uint64(g))
		total *= g
	}

	res, err := w.pg.Collective(func() (interface{}, error) {
		return make([]float64, total), nil
	})
	if err != nil {
		return fmt.Errorf("%w: allocating %s buffer: %v", ErrIO, name, err)
	}
	buf := res.([]float64)

	if len(local) > 0 {
		if err := slab.Scatter(local, global, buf); err != nil {
			return err
		}
	}

	singleChunk := fo.ChunkMode != ChunksNone
	if _, err := w.pg.Collective(func() (interface{}, error) {
		return nil, grp.CreateDataset(name, dims, buf, singleChunk)
	}); err != nil {
		return fmt.Errorf("%w: dataset %s of patch %d: %v", ErrIO, name, p.Index, err)
	}
	return nil
}

// checkChunkShape verifies an explicit chunk shape against a dataset
// of nc components over the patch. Only full-dataset chunks are safe
// under collective writes, so anything else is a configuration error.
func checkChunkShape(fo FrameOptions, nc int, p *Patch) error {
	if fo.ChunkMode != ChunksExplicit {
		return nil
	}
	want := append([]int{nc}, p.GlobalShape()...)
	match := len(fo.ChunkShape) == len(want)
	if match {
		for i := range want {
			if fo.ChunkShape[i] != want[i] {
				match = false
				break
			}
		}
	}
	if !match {
		return fmt.Errorf("%w: chunk shape %v must cover the dataset shape %v under collective writes",
			ErrConfiguration, fo.ChunkShape, want)
	}
	return nil
}
