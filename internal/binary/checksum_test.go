package binary

import "testing"

func TestLookup3Empty(t *testing.T) {
	// Empty input skips both the main loop and the final mix, leaving
	// the initial value.
	if got := Lookup3(nil); got != 0xdeadbeef {
		t.Errorf("Lookup3(nil) = %#x, want 0xdeadbeef", got)
	}
	if got := Lookup3([]byte{}); got != 0xdeadbeef {
		t.Errorf("Lookup3([]) = %#x, want 0xdeadbeef", got)
	}
}

func TestLookup3Deterministic(t *testing.T) {
	data := []byte("OHDR\x02\x00checksum coverage payload")
	first := Lookup3(data)
	if second := Lookup3(data); second != first {
		t.Errorf("Lookup3 not deterministic: %#x then %#x", first, second)
	}
}

func TestLookup3Sensitivity(t *testing.T) {
	// Flipping any single byte must change the checksum, including in
	// the 1-12 byte tail handled outside the main loop.
	for _, size := range []int{1, 11, 12, 13, 25, 64} {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i * 7)
		}
		base := Lookup3(data)
		for i := range data {
			data[i] ^= 0x80
			if Lookup3(data) == base {
				t.Errorf("size %d: flipping byte %d left checksum unchanged", size, i)
			}
			data[i] ^= 0x80
		}
	}
}
