package hdf5

import (
	"bytes"
	"strings"
	"testing"

	binpkg "github.com/clawgo/clawio/internal/binary"
)

func TestHeaderPaddingBoundary(t *testing.T) {
	// Message totals just below the minimum chunk leave less slack than
	// a NIL message's 4-byte prefix. The chunk must round up so the
	// emitted header never exceeds the size headerSize reserved; an
	// overrun lets the next allocation overwrite the header's checksum.
	// A group with one float attribute crosses the boundary at name
	// lengths 43-45.
	for nameLen := 40; nameLen <= 48; nameLen++ {
		name := strings.Repeat("n", nameLen)
		am, err := encodeAttr(Attr{Name: name, Value: 1.5})
		if err != nil {
			t.Fatalf("encodeAttr: %v", err)
		}
		msgs := []message{&linkInfoMsg{}, &groupInfoMsg{}, am}

		buf := &binpkg.Buffer{}
		w := binpkg.NewWriter(buf, binpkg.DefaultConfig())
		reserved := headerSize(w, msgs, minGroupChunk)
		if err := writeHeader(w, msgs, minGroupChunk); err != nil {
			t.Fatalf("writeHeader: %v", err)
		}
		if written := int(w.Pos()); written != reserved {
			t.Errorf("name length %d: wrote %d bytes, headerSize reserved %d", nameLen, written, reserved)
			continue
		}

		r := binpkg.NewReader(bytes.NewReader(buf.Bytes(w.Pos())), binpkg.DefaultConfig())
		info, err := readHeader(r, 0)
		if err != nil {
			t.Fatalf("name length %d: readHeader: %v", nameLen, err)
		}
		if len(info.attrs) != 1 || info.attrs[0].Name != name {
			t.Errorf("name length %d: attribute did not survive the round trip", nameLen)
		}
	}
}

func TestHeadersStayWithinAllocations(t *testing.T) {
	// Back-to-back allocations: each group header must fit the size it
	// reserved, or the following group would clobber its checksum.
	path := t.TempDir() + "/tight.hdf"
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for nameLen := 40; nameLen <= 48; nameLen++ {
		attrs := []Attr{{Name: strings.Repeat("n", nameLen), Value: 1.5}}
		if _, err := f.Root().CreateGroup(strings.Repeat("g", nameLen), attrs); err != nil {
			t.Fatalf("CreateGroup: %v", err)
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
	for nameLen := 40; nameLen <= 48; nameLen++ {
		grp, err := rf.Root().OpenGroup(strings.Repeat("g", nameLen))
		if err != nil {
			t.Fatalf("OpenGroup(%d): %v", nameLen, err)
		}
		if _, ok := grp.Attr(strings.Repeat("n", nameLen)); !ok {
			t.Errorf("group %d lost its attribute", nameLen)
		}
	}
}

func TestSingleChunkLayoutIndexType(t *testing.T) {
	lo := newSingleChunkLayout([]uint64{2, 3}, 8, 0x100)
	buf := &binpkg.Buffer{}
	w := binpkg.NewWriter(buf, binpkg.DefaultConfig())
	if err := lo.encode(w); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes(w.Pos())

	if raw[0] != 4 || raw[1] != 2 {
		t.Fatalf("layout version/class = %d/%d, want 4/2", raw[0], raw[1])
	}
	// version, class, flags, ndims, dim width, then 3 one-byte dims
	if idx := raw[8]; idx != 1 {
		t.Errorf("chunk index type = %d, want 1 (single chunk)", idx)
	}
}
