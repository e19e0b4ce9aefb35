// Package hdf5 implements the container layer for simulation frame
// files: a minimal HDF5 writer and the matching read-back path.
//
// The subset produced is deliberately small and modern: a version 3
// superblock, version 2 object headers, hard links, typed attributes
// on groups, and float64 datasets stored contiguously or as a single
// chunk. Files are readable by h5py and the HDF5 command line tools.
package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/clawgo/clawio/internal/binary"
)

// fileSignature is the HDF5 format signature.
var fileSignature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// ErrNotHDF5 reports a file without the HDF5 signature.
var ErrNotHDF5 = errors.New("not an HDF5 file")

// ErrReadOnly reports a mutation attempted on a file opened for reading.
var ErrReadOnly = errors.New("file is read-only")

// File is an open frame container. Files created with Create are
// writable; files opened with Open are read-only.
type File struct {
	path     string
	osFile   *os.File
	w        *binary.Writer
	r        *binary.Reader
	writable bool

	rootAddr uint64
	eof      uint64
	root     *Group
}

// Create creates (or truncates) a frame container at path.
func Create(path string) (*File, error) {
	osf, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	cfg := binary.DefaultConfig()
	f := &File{
		path:     path,
		osFile:   osf,
		w:        binary.NewWriter(osf, cfg),
		r:        binary.NewReader(osf, cfg),
		writable: true,
	}

	// Superblock first, root group header immediately after.
	f.rootAddr = uint64(superblockSize(cfg))
	f.root = &Group{file: f, name: "/", addr: f.rootAddr}

	rootMsgs := f.root.headerMessages()
	f.eof = f.rootAddr + uint64(headerSize(f.w, rootMsgs, minGroupChunk))

	if err := f.writeSuperblock(); err != nil {
		osf.Close()
		os.Remove(path)
		return nil, err
	}
	if err := writeHeader(f.w.At(int64(f.rootAddr)), rootMsgs, minGroupChunk); err != nil {
		osf.Close()
		os.Remove(path)
		return nil, err
	}
	return f, nil
}

// Open opens an existing frame container for reading.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 8)
	if _, err := osf.ReadAt(sig, 0); err != nil {
		osf.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotHDF5, path)
	}
	for i := range sig {
		if sig[i] != fileSignature[i] {
			osf.Close()
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, path)
		}
	}

	head := make([]byte, 4)
	if _, err := osf.ReadAt(head, 8); err != nil {
		osf.Close()
		return nil, err
	}
	version := head[0]
	if version != 2 && version != 3 {
		osf.Close()
		return nil, fmt.Errorf("unsupported superblock version %d", version)
	}
	cfg := binary.Config{
		ByteOrder:  binary.DefaultConfig().ByteOrder,
		OffsetSize: int(head[1]),
		LengthSize: int(head[2]),
	}

	f := &File{
		path:   path,
		osFile: osf,
		r:      binary.NewReader(osf, cfg),
	}

	// base, extension, EOF, root group address
	sr := f.r.At(12)
	if _, err := sr.ReadOffset(); err != nil {
		osf.Close()
		return nil, err
	}
	if _, err := sr.ReadOffset(); err != nil {
		osf.Close()
		return nil, err
	}
	eof, err := sr.ReadOffset()
	if err != nil {
		osf.Close()
		return nil, err
	}
	rootAddr, err := sr.ReadOffset()
	if err != nil {
		osf.Close()
		return nil, err
	}
	f.eof = eof
	f.rootAddr = rootAddr

	root, err := f.openGroupAt(rootAddr, "/")
	if err != nil {
		osf.Close()
		return nil, err
	}
	f.root = root
	return f, nil
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Path returns the file's path.
func (f *File) Path() string { return f.path }

// Flush rewrites the superblock with the current end-of-file and root
// addresses and syncs the file.
func (f *File) Flush() error {
	if !f.writable {
		return nil
	}
	if err := f.writeSuperblock(); err != nil {
		return err
	}
	return f.osFile.Sync()
}

// Close flushes pending metadata and closes the file.
func (f *File) Close() error {
	if f.writable {
		if err := f.Flush(); err != nil {
			f.osFile.Close()
			return err
		}
	}
	return f.osFile.Close()
}

// allocate reserves size bytes at the end of the file.
func (f *File) allocate(size int) uint64 {
	addr := f.eof
	f.eof += uint64(size)
	return addr
}

func superblockSize(cfg binary.Config) int {
	// signature(8) + version/sizes/flags(4) + four offsets + checksum(4)
	return 12 + 4*cfg.OffsetSize + 4
}

func (f *File) writeSuperblock() error {
	buf := &binary.Buffer{}
	bw := binary.NewWriter(buf, binary.Config{
		ByteOrder:  f.w.ByteOrder(),
		OffsetSize: f.w.OffsetSize(),
		LengthSize: f.w.LengthSize(),
	})

	if err := bw.WriteBytes(fileSignature); err != nil {
		return err
	}
	if err := bw.WriteUint8(3); err != nil { // superblock version
		return err
	}
	if err := bw.WriteUint8(uint8(bw.OffsetSize())); err != nil {
		return err
	}
	if err := bw.WriteUint8(uint8(bw.LengthSize())); err != nil {
		return err
	}
	if err := bw.WriteUint8(0); err != nil { // file consistency flags
		return err
	}
	if err := bw.WriteOffset(0); err != nil { // base address
		return err
	}
	if err := bw.WriteOffset(bw.UndefinedOffset()); err != nil { // extension
		return err
	}
	if err := bw.WriteOffset(f.eof); err != nil {
		return err
	}
	if err := bw.WriteOffset(f.rootAddr); err != nil {
		return err
	}

	sum := binary.Lookup3(buf.Bytes(bw.Pos()))
	if err := bw.WriteUint32(sum); err != nil {
		return err
	}
	return f.w.At(0).WriteBytes(buf.Bytes(bw.Pos()))
}
