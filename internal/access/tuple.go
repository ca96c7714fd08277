// Package access implements the heap tuple codec and the insert/scan
// operations layered on top of the paged buffer pool.
package access

import (
	"encoding/binary"
	"fmt"

	"github.com/tinypgdb/tinypg/internal/dberr"
	"github.com/tinypgdb/tinypg/internal/relation"
)

// tupleHeaderPrefixSize is the size in bytes of the fixed part of an
// encoded tuple's header: a 2-byte count of attributes present in the
// schema at encode time, used to size the null bitmap and to let decode
// treat attributes added after this tuple was written as NULL.
const tupleHeaderPrefixSize = 2

// EncodeTuple serializes values (one per attribute of desc, nil meaning
// NULL) into the on-page tuple representation: a 2-byte attribute count
// and a null bitmap, followed by the concatenated encoded bytes of the
// present attributes, in attribute order. It does not itself reject oversized output; HeapInsert is
// responsible for rejecting a tuple that cannot fit on an empty page.
func EncodeTuple(desc *relation.TupleDesc, values []any) ([]byte, error) {
	if len(values) != len(desc.Attrs) {
		return nil, dberr.CodecError(fmt.Sprintf("expected %d values, got %d", len(desc.Attrs), len(values)))
	}

	bitmapLen := (len(desc.Attrs) + 7) / 8
	out := make([]byte, tupleHeaderPrefixSize+bitmapLen)
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(desc.Attrs)))

	for i, attr := range desc.Attrs {
		v := values[i]
		if v == nil {
			continue
		}
		// Index out directly: the appends below may reallocate it.
		out[tupleHeaderPrefixSize+i/8] |= 1 << uint(i%8)

		encoded, err := encodeDatum(attr, v)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
	}

	return out, nil
}

func encodeDatum(attr relation.Attribute, v any) ([]byte, error) {
	switch attr.Type {
	case relation.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, dberr.CodecError(fmt.Sprintf("attribute %q: expected bool, got %T", attr.Name, v))
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case relation.TypeInt32:
		n, ok := v.(int32)
		if !ok {
			return nil, dberr.CodecError(fmt.Sprintf("attribute %q: expected int32, got %T", attr.Name, v))
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		return buf, nil
	case relation.TypeInt64:
		n, ok := v.(int64)
		if !ok {
			return nil, dberr.CodecError(fmt.Sprintf("attribute %q: expected int64, got %T", attr.Name, v))
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, nil
	case relation.TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, dberr.CodecError(fmt.Sprintf("attribute %q: expected string, got %T", attr.Name, v))
		}
		if len(s) > 0xFFFF {
			return nil, dberr.UnsupportedOperation(fmt.Sprintf("attribute %q: text longer than %d bytes", attr.Name, 0xFFFF))
		}
		buf := make([]byte, 2+len(s))
		binary.LittleEndian.PutUint16(buf[0:2], uint16(len(s)))
		copy(buf[2:], s)
		return buf, nil
	default:
		return nil, dberr.CodecError(fmt.Sprintf("attribute %q: unknown type %v", attr.Name, attr.Type))
	}
}

// DecodeTuple is the inverse of EncodeTuple: it returns a value per
// attribute of desc (nil meaning NULL). Attributes added to desc after
// raw was encoded — i.e. beyond the attribute count recorded in raw's
// header — decode as NULL without consuming any bytes, so schema
// additions never require rewriting old pages.
func DecodeTuple(desc *relation.TupleDesc, raw []byte) ([]any, error) {
	if len(raw) < tupleHeaderPrefixSize {
		return nil, dberr.CodecError("tuple shorter than header")
	}
	encodedAttrs := int(binary.LittleEndian.Uint16(raw[0:2]))
	bitmapLen := (encodedAttrs + 7) / 8
	if len(raw) < tupleHeaderPrefixSize+bitmapLen {
		return nil, dberr.CodecError("tuple shorter than null bitmap")
	}
	bitmap := raw[tupleHeaderPrefixSize : tupleHeaderPrefixSize+bitmapLen]
	off := tupleHeaderPrefixSize + bitmapLen

	values := make([]any, len(desc.Attrs))
	for i := 0; i < encodedAttrs && i < len(desc.Attrs); i++ {
		if bitmap[i/8]&(1<<uint(i%8)) == 0 {
			continue // NULL: no bytes consumed
		}
		v, n, err := decodeDatum(desc.Attrs[i], raw[off:])
		if err != nil {
			return nil, err
		}
		values[i] = v
		off += n
	}
	// Attributes beyond encodedAttrs did not exist when raw was written
	// and are left nil (NULL).
	return values, nil
}

func decodeDatum(attr relation.Attribute, data []byte) (any, int, error) {
	switch attr.Type {
	case relation.TypeBool:
		if len(data) < 1 {
			return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: truncated bool", attr.Name))
		}
		return data[0] != 0, 1, nil
	case relation.TypeInt32:
		if len(data) < 4 {
			return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: truncated int32", attr.Name))
		}
		return int32(binary.LittleEndian.Uint32(data[:4])), 4, nil
	case relation.TypeInt64:
		if len(data) < 8 {
			return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: truncated int64", attr.Name))
		}
		return int64(binary.LittleEndian.Uint64(data[:8])), 8, nil
	case relation.TypeText:
		if len(data) < 2 {
			return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: truncated text length", attr.Name))
		}
		slen := int(binary.LittleEndian.Uint16(data[:2]))
		if len(data) < 2+slen {
			return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: truncated text data", attr.Name))
		}
		return string(data[2 : 2+slen]), 2 + slen, nil
	default:
		return nil, 0, dberr.CodecError(fmt.Sprintf("attribute %q: unknown type %v", attr.Name, attr.Type))
	}
}
