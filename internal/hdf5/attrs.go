package hdf5

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Attr is a named attribute value. Supported value types are float64,
// int64 (or int), string, and []string.
type Attr struct {
	Name  string
	Value interface{}
}

// encodeAttr builds the attribute message for a value.
func encodeAttr(a Attr) (*attrMsg, error) {
	switch v := a.Value.(type) {
	case float64:
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint64(raw, math.Float64bits(v))
		return &attrMsg{
			name:  a.Name,
			dtype: float64Type(),
			space: &dataspaceMsg{},
			data:  raw,
		}, nil

	case int:
		return encodeAttr(Attr{Name: a.Name, Value: int64(v)})

	case int64:
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint64(raw, uint64(v))
		return &attrMsg{
			name:  a.Name,
			dtype: int64Type(),
			space: &dataspaceMsg{},
			data:  raw,
		}, nil

	case string:
		// fixed-length string with room for the terminator
		raw := make([]byte, len(v)+1)
		copy(raw, v)
		return &attrMsg{
			name:  a.Name,
			dtype: fixedStringType(len(v) + 1),
			space: &dataspaceMsg{},
			data:  raw,
		}, nil

	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty string list")
		}
		width := 0
		for _, s := range v {
			if len(s) > width {
				width = len(s)
			}
		}
		width++ // terminator
		raw := make([]byte, len(v)*width)
		for i, s := range v {
			copy(raw[i*width:], s)
		}
		return &attrMsg{
			name:  a.Name,
			dtype: fixedStringType(width),
			space: &dataspaceMsg{dims: []uint64{uint64(len(v))}},
			data:  raw,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported attribute type %T", a.Value)
	}
}
