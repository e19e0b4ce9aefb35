package hdf5

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGroupAttributeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.hdf")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	attrs := []Attr{
		{Name: "t", Value: 0.25},
		{Name: "num_eqn", Value: int64(3)},
		{Name: "patch_index", Value: int64(0)},
		{Name: "dimensions", Value: []string{"x", "y"}},
		{Name: "x.units", Value: "meters"},
	}
	if _, err := f.Root().CreateGroup("patch0", attrs); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	grp, err := rf.Root().OpenGroup("patch0")
	if err != nil {
		t.Fatalf("OpenGroup: %v", err)
	}

	got := grp.Attrs()
	if len(got) != len(attrs) {
		t.Fatalf("got %d attributes, want %d", len(got), len(attrs))
	}
	for i, want := range attrs {
		if got[i].Name != want.Name {
			t.Errorf("attribute %d name = %q, want %q", i, got[i].Name, want.Name)
		}
		if !reflect.DeepEqual(got[i].Value, want.Value) {
			t.Errorf("attribute %q = %v (%T), want %v (%T)",
				want.Name, got[i].Value, got[i].Value, want.Value, want.Value)
		}
	}

	if v, ok := grp.Attr("t"); !ok || v.(float64) != 0.25 {
		t.Errorf("Attr(t) = %v, %v", v, ok)
	}
	if _, ok := grp.Attr("missing"); ok {
		t.Error("Attr(missing) reported present")
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		dims        []uint64
		singleChunk bool
	}{
		{"contiguous-1d", []uint64{6}, false},
		{"contiguous-3d", []uint64{2, 3, 4}, false},
		{"chunked-1d", []uint64{6}, true},
		{"chunked-3d", []uint64{2, 3, 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.hdf")
			total := uint64(1)
			for _, d := range tt.dims {
				total *= d
			}
			values := make([]float64, total)
			for i := range values {
				values[i] = float64(i) * 0.5
			}

			f, err := Create(path)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			grp, err := f.Root().CreateGroup("patch0", nil)
			if err != nil {
				t.Fatalf("CreateGroup: %v", err)
			}
			if err := grp.CreateDataset("q", tt.dims, values, tt.singleChunk); err != nil {
				t.Fatalf("CreateDataset: %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			rf, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rf.Close()

			rg, err := rf.Root().OpenGroup("patch0")
			if err != nil {
				t.Fatalf("OpenGroup: %v", err)
			}
			ds, err := rg.OpenDataset("q")
			if err != nil {
				t.Fatalf("OpenDataset: %v", err)
			}
			if !reflect.DeepEqual(ds.Dims(), tt.dims) {
				t.Errorf("Dims() = %v, want %v", ds.Dims(), tt.dims)
			}
			read, err := ds.ReadFloat64()
			if err != nil {
				t.Fatalf("ReadFloat64: %v", err)
			}
			if len(read) != len(values) {
				t.Fatalf("read %d values, want %d", len(read), len(values))
			}
			for i := range values {
				if read[i] != values[i] {
					t.Fatalf("value %d = %g, want %g", i, read[i], values[i])
				}
			}
		})
	}
}

func TestSpecialFloatValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "special.hdf")

	values := []float64{0, math.Copysign(0, -1), math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64}
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	grp, err := f.Root().CreateGroup("g", nil)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := grp.CreateDataset("q", []uint64{uint64(len(values))}, values, false); err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()
	rg, err := rf.Root().OpenGroup("g")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := rg.OpenDataset("q")
	if err != nil {
		t.Fatal(err)
	}
	read, err := ds.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range values {
		if math.Float64bits(read[i]) != math.Float64bits(want) {
			t.Errorf("value %d = %v, want %v", i, read[i], want)
		}
	}
}

func TestMultipleGroupsSurviveHeaderRewrites(t *testing.T) {
	// Each new link forces the root header to move; earlier links and
	// the groups they point at must stay reachable.
	path := filepath.Join(t.TempDir(), "many.hdf")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	names := []string{"patch0", "patch1", "patch2", "patch3"}
	for i, name := range names {
		grp, err := f.Root().CreateGroup(name, []Attr{{Name: "patch_index", Value: int64(i)}})
		if err != nil {
			t.Fatalf("CreateGroup(%s): %v", name, err)
		}
		if err := grp.CreateDataset("q", []uint64{2}, []float64{float64(i), float64(i) + 0.5}, false); err != nil {
			t.Fatalf("CreateDataset in %s: %v", name, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	if got := rf.Root().Members(); !reflect.DeepEqual(got, names) {
		t.Fatalf("Members() = %v, want %v", got, names)
	}
	for i, name := range names {
		grp, err := rf.Root().OpenGroup(name)
		if err != nil {
			t.Fatalf("OpenGroup(%s): %v", name, err)
		}
		if v, ok := grp.Attr("patch_index"); !ok || v.(int64) != int64(i) {
			t.Errorf("%s patch_index = %v, %v", name, v, ok)
		}
		ds, err := grp.OpenDataset("q")
		if err != nil {
			t.Fatalf("OpenDataset in %s: %v", name, err)
		}
		read, err := ds.ReadFloat64()
		if err != nil {
			t.Fatal(err)
		}
		if read[0] != float64(i) {
			t.Errorf("%s q[0] = %g, want %g", name, read[0], float64(i))
		}
	}
}

func TestOpenRejectsNonHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-hdf5.txt")
	if err := os.WriteFile(path, []byte("plain text, no signature here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("Open() error = %v, want ErrNotHDF5", err)
	}
}

func TestReadOnlyFileRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.hdf")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rf, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	if _, err := rf.Root().CreateGroup("g", nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateGroup on read-only file: %v, want ErrReadOnly", err)
	}
	if err := rf.Root().CreateDataset("q", []uint64{1}, []float64{1}, false); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateDataset on read-only file: %v, want ErrReadOnly", err)
	}
}

func TestDatasetShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hdf")
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := f.Root().CreateDataset("q", []uint64{2, 3}, make([]float64, 5), false); err == nil {
		t.Error("CreateDataset accepted 5 values for a 2x3 shape")
	}
}
