// Package clawio writes simulation output frames for patch-based,
// block-structured solvers whose state is decomposed across a group of
// cooperating processes. Each frame becomes one self-describing HDF5
// container holding one group per patch, with the patch metadata as
// attributes and the solution arrays as datasets assembled from every
// process's locally owned hyperslab under collective I/O semantics.
package clawio

import "errors"

// Common errors
var (
	// ErrConfiguration reports frame options or state descriptors that
	// are invalid or unsupported under collective writes. It is always
	// returned before the frame file is touched.
	ErrConfiguration = errors.New("invalid frame configuration")

	// ErrBackendUnavailable reports a backend this build cannot provide.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrUnsupportedRank reports a patch whose spatial dimensionality
	// is outside the supported 1-3 range.
	ErrUnsupportedRank = errors.New("unsupported patch rank")

	// ErrNotImplemented reports a selectable but unimplemented backend.
	ErrNotImplemented = errors.New("not implemented")

	// ErrIO wraps failures from the container layer or the filesystem.
	// A frame write that fails mid-flight is aborted, not rolled back;
	// the partially written file is left in place.
	ErrIO = errors.New("frame i/o failed")
)
