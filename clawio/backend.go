package clawio

import "fmt"

// Backend identifies the container format a Writer produces.
type Backend uint8

const (
	// BackendHDF5 writes HDF5 containers and is the default.
	BackendHDF5 Backend = iota

	// BackendNetCDF is reserved. Selecting it fails with
	// ErrNotImplemented at writer construction.
	BackendNetCDF
)

func (b Backend) String() string {
	switch b {
	case BackendHDF5:
		return "hdf5"
	case BackendNetCDF:
		return "netcdf"
	default:
		return fmt.Sprintf("backend(%d)", uint8(b))
	}
}
